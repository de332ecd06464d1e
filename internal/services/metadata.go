package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// albumMarker is the literal heading preceding album links on a track's
// /albums webpage fragment.
const albumMarker = "<h2>Appears in albums</h2>"

// unrelatedSectionPrefix flags a scraped anchor that matched a different
// page section ("Users who like similar tracks") instead of an album link.
const unrelatedSectionPrefix = "Users who like"

var (
	hrefRe   = regexp.MustCompile(`href="([^"]*)"`)
	anchorRe = regexp.MustCompile(`<a[^>]*>(.*?)</a>`)
)

// findMarkerLink locates marker inside html and extracts the first
// following anchor's href and inner text. Any miss — no marker, no anchor —
// reports ok as false; scraping is best-effort and never raises.
func findMarkerLink(html, marker string) (href, text string, ok bool) {
	idx := strings.Index(html, marker)
	if idx < 0 {
		return "", "", false
	}
	tail := html[idx:]

	hrefMatch := hrefRe.FindStringSubmatch(tail)
	if hrefMatch == nil {
		return "", "", false
	}

	textMatch := anchorRe.FindStringSubmatch(tail)
	if textMatch != nil {
		text = textMatch[1]
	}
	return hrefMatch[1], text, true
}

// MetadataResolver reconciles a sparse track record, a webpage scrape, and
// an optionally resolved album record into one fully populated
// [models.TrackMetadata].
type MetadataResolver struct {
	svc *SoundCloudService
}

// NewMetadataResolver creates a resolver backed by the given client.
func NewMetadataResolver(svc *SoundCloudService) *MetadataResolver {
	return &MetadataResolver{svc: svc}
}

// Resolve never fails: every field has a defined fallback, so gaps in the
// primary record and any failure of the optional fetches (albums page,
// album resolve) degrade to defaults instead of erroring.
//
// Beyond the track record itself this issues up to two network fetches:
// the "<permalink>/albums" page, and — when that page names an album — a
// resolve call for the album record.
func (r *MetadataResolver) Resolve(ctx context.Context, track *TrackRecord) *models.TrackMetadata {
	album, scrapedName := r.albumContext(ctx, track)

	meta := &models.TrackMetadata{
		ImageURL:     track.ArtworkURL,
		Description:  track.Description,
		Genre:        shared.JoinList([]string{track.Genre}),
		Label:        track.LabelName,
		ItemURL:      track.PermalinkURL,
		ReleaseYear:  releaseYear(track),
		Title:        track.Title,
		Length:       trackLength(track),
		Artists:      artists(track),
		AlbumName:    albumName(track, scrapedName),
		AlbumArtists: track.User.Username,
		Copyright:    copyrightLine(track),
		IsPlayable:   track.Streamable,
		ItemID:       track.ID,
	}

	meta.TrackNumber, meta.TotalTracks, meta.AlbumType = albumPosition(track, album)
	return meta
}

// albumContext runs the webpage scrape and conditional album resolve.
// Both fetches are optional: any failure yields a nil album and keeps the
// scraped name (when present) for the album-name fallback.
func (r *MetadataResolver) albumContext(ctx context.Context, track *TrackRecord) (*AlbumRecord, string) {
	if track.PermalinkURL == "" {
		return nil, ""
	}

	page, err := r.svc.trackAlbumsPage(ctx, track.PermalinkURL)
	if err != nil {
		return nil, ""
	}

	href, text, ok := findMarkerLink(page, albumMarker)
	if !ok {
		return nil, ""
	}

	album, err := r.svc.resolveAlbum(ctx, href)
	if err != nil {
		return nil, text
	}
	return album, text
}

// albumPosition derives the 1-based track position and total count from an
// album record. The scan counts every entry up to and including the first
// ID match; when the ID never matches, the counter deliberately ends at
// the full list length. No album context means a "single".
func albumPosition(track *TrackRecord, album *AlbumRecord) (number, total, albumType string) {
	if album == nil || album.TrackCount == 0 {
		return "1", "1", models.AlbumTypeSingle
	}

	position := 0
	for _, ref := range album.Tracks {
		position++
		if ref.ID == track.ID {
			break
		}
	}
	return strconv.Itoa(position), strconv.Itoa(album.TrackCount), models.AlbumTypeAlbum
}

// artists splits publisher_metadata.artist into a joined list, falling
// back to the uploader's display name.
func artists(track *TrackRecord) string {
	if track.PublisherMetadata != nil {
		if joined := shared.JoinList(shared.SplitList(track.PublisherMetadata.Artist)); joined != "" {
			return joined
		}
	}
	return track.User.Username
}

// albumName prefers the publisher-supplied name over the scraped one. A
// scraped name from the "Users who like" section means the scrape hit an
// unrelated block, so the track's own title wins instead.
func albumName(track *TrackRecord, scraped string) string {
	if track.PublisherMetadata != nil && track.PublisherMetadata.AlbumName != "" {
		return track.PublisherMetadata.AlbumName
	}
	if strings.HasPrefix(scraped, unrelatedSectionPrefix) {
		return track.Title
	}
	return scraped
}

// releaseYear takes the year portion of release_date, else last_modified.
func releaseYear(track *TrackRecord) string {
	date := track.ReleaseDate
	if date == "" {
		date = track.LastModified
	}
	year, _, _ := strings.Cut(date, "-")
	return year
}

// copyrightLine splits and rejoins publisher_metadata.c_line.
func copyrightLine(track *TrackRecord) string {
	if track.PublisherMetadata == nil {
		return ""
	}
	return shared.JoinList(shared.SplitList(track.PublisherMetadata.CLine))
}

// trackLength reads the duration of the first transcoding entry. This is
// a simpler path than stream selection on purpose: the first entry is
// good enough for display and tagging.
func trackLength(track *TrackRecord) string {
	if len(track.Media.Transcodings) == 0 {
		return "0"
	}
	return strconv.Itoa(track.Media.Transcodings[0].Duration)
}
