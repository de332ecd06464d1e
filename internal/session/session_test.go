package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	tu "github.com/earlybird-mp3/onthespot-scdl/internal/testing"
)

func TestNewToken(t *testing.T) {
	t.Run("guest session", func(t *testing.T) {
		tok := NewToken(shared.SoundCloudConfig{ClientID: "abc", AppVersion: "17"})

		if tok.ClientID != "abc" || tok.AppVersion != "17" {
			t.Errorf("unexpected token %+v", tok)
		}
		if tok.AppLocale != "en" {
			t.Errorf("expected default locale en, got %s", tok.AppLocale)
		}
		if tok.Premium() {
			t.Error("guest token should not be premium")
		}
	})

	t.Run("premium session", func(t *testing.T) {
		tok := NewToken(shared.SoundCloudConfig{ClientID: "abc", OAuthToken: "2-oauth"})

		if !tok.Premium() {
			t.Fatal("expected premium token")
		}
		if tok.OAuth.TokenType != "OAuth" {
			t.Errorf("expected OAuth token type, got %s", tok.OAuth.TokenType)
		}

		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		tok.OAuth.SetAuthHeader(req)
		if got := req.Header.Get("Authorization"); got != "OAuth 2-oauth" {
			t.Errorf("expected OAuth scheme header, got %q", got)
		}
	})
}

func TestBootstrap(t *testing.T) {
	t.Run("discovers client_id and app_version", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				fmt.Fprintf(w, `<html>
<script crossorigin src="%s/assets/0-aaaa.js"></script>
<script crossorigin src="%s/assets/49-bbbb.js"></script>
<script>window.__sc_version="1712345678"</script>
</html>`, server.URL, server.URL)
			case "/assets/49-bbbb.js":
				fmt.Fprint(w, `var e={},t={client_id:"iZIs9mchVcX5lhVRyQGGAYlNPVldzAoX"};`)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		oldSite := siteURL
		siteURL = server.URL
		defer func() { siteURL = oldSite }()

		tok, err := Bootstrap(context.Background(), server.Client())
		if err != nil {
			t.Fatalf("bootstrap failed: %v", err)
		}

		if tok.ClientID != "iZIs9mchVcX5lhVRyQGGAYlNPVldzAoX" {
			t.Errorf("unexpected client_id %s", tok.ClientID)
		}
		if tok.AppVersion != "1712345678" {
			t.Errorf("unexpected app_version %s", tok.AppVersion)
		}
		if tok.AppLocale != "en" {
			t.Errorf("unexpected app_locale %s", tok.AppLocale)
		}
	})

	t.Run("missing app version fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<script crossorigin src="https://x/app.js"></script>`)
		}))
		defer server.Close()

		oldSite := siteURL
		siteURL = server.URL
		defer func() { siteURL = oldSite }()

		_, err := Bootstrap(context.Background(), server.Client())
		if !errors.Is(err, shared.ErrSessionBootstrap) {
			t.Errorf("expected ErrSessionBootstrap, got %v", err)
		}
	})

	t.Run("transport failure fails", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
		}

		_, err := Bootstrap(context.Background(), client)
		if !errors.Is(err, shared.ErrSessionBootstrap) {
			t.Errorf("expected ErrSessionBootstrap, got %v", err)
		}
	})

	t.Run("unreadable landing page fails", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
			}, nil),
		}

		_, err := Bootstrap(context.Background(), client)
		if !errors.Is(err, shared.ErrSessionBootstrap) {
			t.Errorf("expected ErrSessionBootstrap, got %v", err)
		}
	})

	t.Run("no script bundles fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>nothing here</html>`)
		}))
		defer server.Close()

		oldSite := siteURL
		siteURL = server.URL
		defer func() { siteURL = oldSite }()

		_, err := Bootstrap(context.Background(), server.Client())
		if !errors.Is(err, shared.ErrSessionBootstrap) {
			t.Errorf("expected ErrSessionBootstrap, got %v", err)
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.URL.Query().Get("client_id") != "abc" {
				t.Errorf("expected client_id param, got %s", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		oldVerify := verifyAuthURL
		verifyAuthURL = server.URL
		defer func() { verifyAuthURL = oldVerify }()

		if err := Verify(context.Background(), server.Client(), "abc", "2-oauth"); err != nil {
			t.Errorf("expected token to verify, got %v", err)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		oldVerify := verifyAuthURL
		verifyAuthURL = server.URL
		defer func() { verifyAuthURL = oldVerify }()

		err := Verify(context.Background(), server.Client(), "abc", "2-oauth")
		if !errors.Is(err, shared.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		err := Verify(context.Background(), nil, "abc", "")
		if !errors.Is(err, shared.ErrTokenInvalid) {
			t.Errorf("expected ErrTokenInvalid, got %v", err)
		}
	})
}
