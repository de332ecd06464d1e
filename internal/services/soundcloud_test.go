package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/earlybird-mp3/onthespot-scdl/internal/session"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// memCache is a map-backed Cache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.entries[url]
	return body, ok
}

func (c *memCache) Put(url string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = body
	c.puts++
	return nil
}

func newService(server *httptest.Server, cache Cache) *SoundCloudService {
	return NewSoundCloudService(session.Token{ClientID: "cid", AppVersion: "177", AppLocale: "en"}, SoundCloudOpts{
		BaseURL:    server.URL,
		SiteURL:    server.URL,
		HTTPClient: server.Client(),
		Cache:      cache,
	})
}

func TestResolve(t *testing.T) {
	t.Run("returns kind and id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/resolve" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("client_id") != "cid" {
				t.Error("expected client_id param")
			}
			fmt.Fprint(w, `{"id": 42, "kind": "track"}`)
		}))
		defer server.Close()

		kind, id, err := newService(server, nil).Resolve(context.Background(), "https://soundcloud.com/a/b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if kind != "track" || id != 42 {
			t.Errorf("unexpected result %s/%d", kind, id)
		}
	})

	t.Run("zero id means not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		_, _, err := newService(server, nil).Resolve(context.Background(), "https://soundcloud.com/a/gone")
		if !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})
}

func TestTrack(t *testing.T) {
	t.Run("decodes the record", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/tracks/42" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"id": 42, "title": "Song", "user": {"username": "uploader"},
				"publisher_metadata": {"artist": "A", "c_line": "2020 Label"},
				"media": {"transcodings": [{"preset": "mp3_0_0", "duration": 1000}]}}`)
		}))
		defer server.Close()

		track, err := newService(server, nil).Track(context.Background(), 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.Title != "Song" || track.User.Username != "uploader" {
			t.Errorf("unexpected track %+v", track)
		}
		if track.PublisherMetadata == nil || track.PublisherMetadata.CLine != "2020 Label" {
			t.Error("expected publisher metadata to decode")
		}
		if len(track.Media.Transcodings) != 1 {
			t.Error("expected one transcoding")
		}
	})

	t.Run("forbidden surfaces as private upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := newService(server, nil).Track(context.Background(), 99)
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected *UpstreamError, got %v", err)
		}
		if upstream.Status != http.StatusForbidden || !upstream.Private() {
			t.Errorf("expected private 403, got %+v", upstream)
		}
		if !errors.Is(err, shared.ErrUpstreamFetch) {
			t.Error("expected ErrUpstreamFetch in the chain")
		}
	})

	t.Run("server error is not private", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newService(server, nil).Track(context.Background(), 99)
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("expected *UpstreamError, got %v", err)
		}
		if upstream.Private() {
			t.Error("500 must not read as private")
		}
	})
}

func TestFetchCaching(t *testing.T) {
	t.Run("second hit reads through the cache", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			fmt.Fprint(w, `{"id": 7, "kind": "track"}`)
		}))
		defer server.Close()

		cache := newMemCache()
		svc := newService(server, cache)

		for range 2 {
			if _, _, err := svc.Resolve(context.Background(), "https://soundcloud.com/a/b"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if hits != 1 {
			t.Errorf("expected one upstream hit, got %d", hits)
		}
		if cache.puts != 1 {
			t.Errorf("expected one cache write, got %d", cache.puts)
		}
	})

	t.Run("set fetch bypasses cache", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			fmt.Fprint(w, `{"id": 9, "kind": "playlist", "title": "Mix",
				"track_count": 1, "tracks": [{"id": 1, "title": "Only"}]}`)
		}))
		defer server.Close()

		cache := newMemCache()
		svc := newService(server, cache)

		for range 2 {
			set, err := svc.SetItems(context.Background(), "https://soundcloud.com/a/sets/mix")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if set.Title != "Mix" || len(set.Tracks) != 1 {
				t.Errorf("unexpected set %+v", set)
			}
		}
		if hits != 2 {
			t.Errorf("expected both calls to hit upstream, got %d", hits)
		}
		if cache.puts != 0 {
			t.Errorf("expected no cache writes, got %d", cache.puts)
		}
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		cache := newMemCache()
		if _, err := newService(server, cache).Track(context.Background(), 1); err == nil {
			t.Fatal("expected an error")
		}
		if cache.puts != 0 {
			t.Errorf("expected no cache writes, got %d", cache.puts)
		}
	})
}

func TestSearch(t *testing.T) {
	handler := func(wantPath string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != wantPath {
				http.NotFound(w, r)
				return
			}
			if r.URL.Query().Get("q") != "query" {
				http.Error(w, "missing query", http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, `{"collection": [
				{"id": 1, "title": "One", "permalink_url": "https://soundcloud.com/u/one",
				 "artwork_url": "https://i1.sndcdn.com/a.jpg", "user": {"username": "u"}},
				{"id": 2, "title": "Two", "user": {"username": "v"}}
			]}`)
		}
	}

	t.Run("tracks", func(t *testing.T) {
		server := httptest.NewServer(handler("/search/tracks"))
		defer server.Close()

		results, err := newService(server, nil).SearchTracks(context.Background(), "query")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		first := results[0]
		if first.ItemID != 1 || first.ItemName != "One" || first.ItemBy != "u" {
			t.Errorf("unexpected result %+v", first)
		}
		if first.ItemType != "track" || first.ItemService != ServiceName {
			t.Errorf("unexpected tagging %+v", first)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		server := httptest.NewServer(handler("/search/playlists"))
		defer server.Close()

		results, err := newService(server, nil).SearchPlaylists(context.Background(), "query")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 || results[0].ItemType != "playlist" {
			t.Errorf("unexpected results %+v", results)
		}
	})
}

func TestPremiumAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "OAuth 2-secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		fmt.Fprint(w, `{"id": 1, "kind": "track"}`)
	}))
	defer server.Close()

	token := session.NewToken(shared.SoundCloudConfig{
		ClientID:   "cid",
		OAuthToken: "2-secret",
	})
	svc := NewSoundCloudService(token, SoundCloudOpts{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if _, err := svc.Track(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
