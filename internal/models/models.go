// package models defines the normalized data model shared by the CLI, TUI and export layers
package models

// TrackMetadata is the fully reconciled description of one track.
//
// Every field is populated after resolution: string fields fall back to ""
// and the album-position fields fall back to "1"/"1" with AlbumType
// "single" when no album context exists. Label is dropped from JSON output
// entirely when empty.
type TrackMetadata struct {
	ImageURL     string `json:"image_url"`
	Description  string `json:"description"`
	Genre        string `json:"genre"`
	Label        string `json:"label,omitempty"`
	ItemURL      string `json:"item_url"`
	ReleaseYear  string `json:"release_year"`
	Title        string `json:"title"`
	TrackNumber  string `json:"track_number"`
	TotalTracks  string `json:"total_tracks"`
	Length       string `json:"length"`
	Artists      string `json:"artists"`
	AlbumName    string `json:"album_name"`
	AlbumType    string `json:"album_type"`
	AlbumArtists string `json:"album_artists"`
	Copyright    string `json:"copyright"`
	IsPlayable   bool   `json:"is_playable"`
	ItemID       int64  `json:"item_id"`
}

// AlbumType values for [TrackMetadata].
const (
	AlbumTypeAlbum  = "album"
	AlbumTypeSingle = "single"
)

// SelectedStream is the playable rendition chosen for a track, plus the
// derived container tag and output path. The URL still has to be followed
// by a media-fetch layer; Authorization is the opaque track_authorization
// token passed through untouched.
type SelectedStream struct {
	URL           string `json:"url"`
	Preset        string `json:"preset"`
	Quality       string `json:"quality"`
	MimeType      string `json:"mime_type"`
	Protocol      string `json:"protocol"`
	Container     string `json:"container"`
	OutputPath    string `json:"output_path"`
	Authorization string `json:"track_authorization,omitempty"`
}

// SearchResult is one row of shaped search output.
type SearchResult struct {
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name"`
	ItemBy       string `json:"item_by"`
	ItemType     string `json:"item_type"`
	ItemService  string `json:"item_service"`
	ItemURL      string `json:"item_url"`
	ThumbnailURL string `json:"item_thumbnail_url,omitempty"`
}

// SetExport is a resolved set (playlist/album) with the metadata of every
// track the bulk exporter managed to resolve.
type SetExport struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	URL    string          `json:"url"`
	Tracks []TrackMetadata `json:"tracks"`
}
