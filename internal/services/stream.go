package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// encryptedMarker flags renditions whose delivery protocol requires DRM
// key exchange; those can never be fetched directly.
const encryptedMarker = "encrypted"

// codec preference when no HQ rendition is requested or available.
// "First match" rather than "best match": entries within a preset family
// already arrive in the service's own preferred order.
var presetOrder = []string{"aac_", "mp3_", "opus_"}

// SelectTranscoding picks the rendition to download from an unordered
// transcoding list.
//
// Encrypted entries are discarded first. With preferHQ the first entry of
// quality "hq" wins regardless of codec; entitlement is enforced
// server-side via the session token, not checked here. Otherwise (or when
// no HQ entry exists) the first entry of the highest-ranked preset family
// wins. Returns [shared.ErrNoUsableStream] when nothing survives.
func SelectTranscoding(transcodings []Transcoding, preferHQ bool) (Transcoding, error) {
	usable := make([]Transcoding, 0, len(transcodings))
	for _, t := range transcodings {
		if strings.Contains(t.Format.Protocol, encryptedMarker) {
			continue
		}
		usable = append(usable, t)
	}
	if len(usable) == 0 {
		return Transcoding{}, fmt.Errorf("%w: all renditions encrypted or list empty", shared.ErrNoUsableStream)
	}

	if preferHQ {
		for _, t := range usable {
			if t.Quality == "hq" {
				return t, nil
			}
		}
	}

	for _, prefix := range presetOrder {
		for _, t := range usable {
			if strings.HasPrefix(t.Preset, prefix) {
				return t, nil
			}
		}
	}

	return Transcoding{}, fmt.Errorf("%w: no rendition matched the preference cascade", shared.ErrNoUsableStream)
}

// ContainerFromMIME derives a file-format hint from a declared media type.
// This is a substring heuristic, not a parser; unrecognized types fall
// back to mp3.
func ContainerFromMIME(mimeType string) string {
	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "mpeg"):
		return "mp3"
	case strings.Contains(mimeType, "mp4"):
		return "m4a"
	case strings.Contains(mimeType, "ogg"):
		return "ogg"
	default:
		return "mp3"
	}
}

// StreamOutputPath swaps outputPath's extension for the inferred
// container, or synthesizes "soundcloud_<id>.<container>" when the caller
// supplied no path.
func StreamOutputPath(outputPath string, itemID int64, container string) string {
	if outputPath == "" {
		return fmt.Sprintf("soundcloud_%d.%s", itemID, container)
	}
	base := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))
	return base + "." + container
}

// SelectStream runs the selection cascade over a track record and bundles
// the winner with its container tag, output path, and the opaque
// track_authorization passthrough.
func SelectStream(track *TrackRecord, preferHQ bool, outputPath string) (*models.SelectedStream, error) {
	chosen, err := SelectTranscoding(track.Media.Transcodings, preferHQ)
	if err != nil {
		return nil, err
	}

	container := ContainerFromMIME(chosen.Format.MimeType)

	return &models.SelectedStream{
		URL:           chosen.URL,
		Preset:        chosen.Preset,
		Quality:       chosen.Quality,
		MimeType:      chosen.Format.MimeType,
		Protocol:      chosen.Format.Protocol,
		Container:     container,
		OutputPath:    StreamOutputPath(outputPath, track.ID, container),
		Authorization: track.TrackAuthorization,
	}, nil
}
