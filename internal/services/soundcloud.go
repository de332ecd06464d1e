// SoundCloud api-v2 client.
//
// Response types mirror the subset of the api-v2 JSON shapes this tool
// reads; every field is optional upstream and tolerated as absent here.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/earlybird-mp3/onthespot-scdl/internal/models"
	"github.com/earlybird-mp3/onthespot-scdl/internal/session"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api-v2.soundcloud.com"
	defaultSiteURL = "https://soundcloud.com"

	// ServiceName tags shaped search results.
	ServiceName = "soundcloud"
)

// UserRecord is the uploader embedded in track and playlist records.
type UserRecord struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PublisherMetadata carries label-supplied fields; the whole block is
// frequently missing.
type PublisherMetadata struct {
	Artist    string `json:"artist"`
	AlbumName string `json:"album_name"`
	CLine     string `json:"c_line"`
}

// TranscodingFormat describes a rendition's container and delivery protocol.
type TranscodingFormat struct {
	Protocol string `json:"protocol"`
	MimeType string `json:"mime_type"`
}

// Transcoding is one encoded rendition of a track.
type Transcoding struct {
	URL      string            `json:"url"`
	Preset   string            `json:"preset"`
	Duration int               `json:"duration"`
	Quality  string            `json:"quality"`
	Format   TranscodingFormat `json:"format"`
}

// Media wraps the transcoding list; its order carries no meaning.
type Media struct {
	Transcodings []Transcoding `json:"transcodings"`
}

// TrackRecord is the item-detail record for a track.
type TrackRecord struct {
	ID                 int64              `json:"id"`
	Kind               string             `json:"kind"`
	Title              string             `json:"title"`
	PermalinkURL       string             `json:"permalink_url"`
	ArtworkURL         string             `json:"artwork_url"`
	Description        string             `json:"description"`
	Genre              string             `json:"genre"`
	LabelName          string             `json:"label_name"`
	ReleaseDate        string             `json:"release_date"`
	LastModified       string             `json:"last_modified"`
	Streamable         bool               `json:"streamable"`
	User               UserRecord         `json:"user"`
	PublisherMetadata  *PublisherMetadata `json:"publisher_metadata"`
	Media              Media              `json:"media"`
	TrackAuthorization string             `json:"track_authorization"`
}

// AlbumTrackRef is a bare track reference inside an album record.
type AlbumTrackRef struct {
	ID int64 `json:"id"`
}

// AlbumRecord is the resolved album a track appears in; only the track
// list and count are read.
type AlbumRecord struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	TrackCount int             `json:"track_count"`
	Tracks     []AlbumTrackRef `json:"tracks"`
}

// SetRecord is a resolved set (playlist or album) with its member tracks.
type SetRecord struct {
	ID           int64         `json:"id"`
	Kind         string        `json:"kind"`
	Title        string        `json:"title"`
	PermalinkURL string        `json:"permalink_url"`
	TrackCount   int           `json:"track_count"`
	User         UserRecord    `json:"user"`
	Tracks       []TrackRecord `json:"tracks"`
}

type resolveRecord struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`
}

type searchCollection struct {
	Collection []struct {
		ID           int64      `json:"id"`
		Title        string     `json:"title"`
		PermalinkURL string     `json:"permalink_url"`
		ArtworkURL   string     `json:"artwork_url"`
		User         UserRecord `json:"user"`
	} `json:"collection"`
}

// SoundCloudService is the typed api-v2 client. Each request carries the
// session token's identification params and, for premium sessions, the
// OAuth authorization header.
type SoundCloudService struct {
	baseURL    string
	siteURL    string
	token      session.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
}

// SoundCloudOpts configures optional collaborators for the client.
type SoundCloudOpts struct {
	BaseURL    string
	SiteURL    string
	HTTPClient *http.Client
	Cache      Cache
	RateLimit  float64 // requests per second, 0 means uncapped
}

// NewSoundCloudService creates a client for the given session token.
func NewSoundCloudService(token session.Token, opts SoundCloudOpts) *SoundCloudService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.SiteURL == "" {
		opts.SiteURL = defaultSiteURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &SoundCloudService{
		baseURL:    opts.BaseURL,
		siteURL:    opts.SiteURL,
		token:      token,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      opts.Cache,
	}
}

// Name returns the service name.
func (s *SoundCloudService) Name() string {
	return ServiceName
}

// apiURL builds an absolute api-v2 URL with the session params plus extra
// query values appended.
func (s *SoundCloudService) apiURL(path string, extra url.Values) string {
	params := url.Values{
		"client_id":   {s.token.ClientID},
		"app_version": {s.token.AppVersion},
		"app_locale":  {s.token.AppLocale},
	}
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	return s.baseURL + path + "?" + params.Encode()
}

// fetch performs a GET, optionally through the response cache.
// Non-2xx responses come back as *UpstreamError.
func (s *SoundCloudService) fetch(ctx context.Context, fullURL string, useCache bool) ([]byte, error) {
	if useCache && s.cache != nil {
		if body, ok := s.cache.Get(fullURL); ok {
			return body, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", session.UserAgent)
	if s.token.Premium() {
		s.token.OAuth.SetAuthHeader(req)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if useCache && s.cache != nil {
		// Cache misses must not fail the request.
		_ = s.cache.Put(fullURL, body)
	}

	return body, nil
}

// getJSON fetches fullURL and decodes the JSON body into result.
func (s *SoundCloudService) getJSON(ctx context.Context, fullURL string, useCache bool, result any) error {
	body, err := s.fetch(ctx, fullURL, useCache)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Resolve maps an arbitrary item URL to its kind and numeric ID via the
// /resolve endpoint.
func (s *SoundCloudService) Resolve(ctx context.Context, itemURL string) (string, int64, error) {
	var rec resolveRecord
	endpoint := s.apiURL("/resolve", url.Values{"url": {itemURL}})
	if err := s.getJSON(ctx, endpoint, true, &rec); err != nil {
		return "", 0, err
	}
	if rec.ID == 0 {
		return "", 0, fmt.Errorf("%w: %s", shared.ErrItemNotFound, itemURL)
	}
	return rec.Kind, rec.ID, nil
}

// Track fetches the full detail record for a track. This is the one
// mandatory fetch: authorization failures and other non-success statuses
// surface as *UpstreamError for the caller to inspect.
func (s *SoundCloudService) Track(ctx context.Context, itemID int64) (*TrackRecord, error) {
	var track TrackRecord
	endpoint := s.apiURL("/tracks/"+strconv.FormatInt(itemID, 10), nil)
	if err := s.getJSON(ctx, endpoint, true, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SetItems resolves a /sets URL to its playlist record. Set contents move
// often, so this call bypasses the response cache.
func (s *SoundCloudService) SetItems(ctx context.Context, setURL string) (*SetRecord, error) {
	var set SetRecord
	endpoint := s.apiURL("/resolve", url.Values{"url": {setURL}})
	if err := s.getJSON(ctx, endpoint, false, &set); err != nil {
		return nil, err
	}
	if set.ID == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, setURL)
	}
	return &set, nil
}

// SearchTracks queries the track search endpoint and shapes the results.
func (s *SoundCloudService) SearchTracks(ctx context.Context, query string) ([]models.SearchResult, error) {
	return s.search(ctx, "/search/tracks", "track", query)
}

// SearchPlaylists queries the playlist search endpoint and shapes the results.
func (s *SoundCloudService) SearchPlaylists(ctx context.Context, query string) ([]models.SearchResult, error) {
	return s.search(ctx, "/search/playlists", "playlist", query)
}

func (s *SoundCloudService) search(ctx context.Context, path, itemType, query string) ([]models.SearchResult, error) {
	var page searchCollection
	endpoint := s.apiURL(path, url.Values{"q": {query}})
	if err := s.getJSON(ctx, endpoint, true, &page); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(page.Collection))
	for _, item := range page.Collection {
		results = append(results, models.SearchResult{
			ItemID:       item.ID,
			ItemName:     item.Title,
			ItemBy:       item.User.Username,
			ItemType:     itemType,
			ItemService:  ServiceName,
			ItemURL:      item.PermalinkURL,
			ThumbnailURL: item.ArtworkURL,
		})
	}
	return results, nil
}

// trackAlbumsPage fetches the raw "<permalink>/albums" webpage fragment
// used by the metadata resolver's album scrape.
func (s *SoundCloudService) trackAlbumsPage(ctx context.Context, permalinkURL string) (string, error) {
	body, err := s.fetch(ctx, permalinkURL+"/albums", true)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// resolveAlbum follows a scraped site-relative href through the resolve
// endpoint to an album record.
func (s *SoundCloudService) resolveAlbum(ctx context.Context, href string) (*AlbumRecord, error) {
	var album AlbumRecord
	endpoint := s.apiURL("/resolve", url.Values{"url": {s.siteURL + href}})
	if err := s.getJSON(ctx, endpoint, true, &album); err != nil {
		return nil, err
	}
	return &album, nil
}
