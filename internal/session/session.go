// package session bootstraps and verifies SoundCloud web sessions.
//
// SoundCloud has no public credential issuance: the web player's client_id
// and app_version are scraped from the public site, and premium (Go+)
// access rides on an OAuth token lifted from a logged-in browser session.
// Everything here produces a [Token] value object that callers pass
// explicitly; there is no ambient session state.
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"golang.org/x/oauth2"
)

// The web player's user agent; api-v2 rejects obviously non-browser callers.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/77.0.3865.90 Safari/537.36"

// Overridable in tests.
var (
	siteURL       = "https://soundcloud.com"
	verifyAuthURL = "https://api-auth.soundcloud.com/connect/session"
)

var (
	scriptSrcRe  = regexp.MustCompile(`<script\s+crossorigin\s+src="([^"]+)"`)
	appVersionRe = regexp.MustCompile(`<script>window\.__sc_version="(\d+)"</script>`)
	clientIDRe   = regexp.MustCompile(`client_id:\s*"(\w+)"`)
)

// Token is the session record every API call carries.
//
// OAuth is nil for guest sessions; when set, its type is "OAuth" so that
// [oauth2.Token.SetAuthHeader] emits the Authorization scheme the service
// expects.
type Token struct {
	ClientID   string
	AppVersion string
	AppLocale  string
	OAuth      *oauth2.Token
}

// NewToken builds a Token from persisted credentials.
func NewToken(cfg shared.SoundCloudConfig) Token {
	t := Token{
		ClientID:   cfg.ClientID,
		AppVersion: cfg.AppVersion,
		AppLocale:  cfg.AppLocale,
	}
	if t.AppLocale == "" {
		t.AppLocale = "en"
	}
	if cfg.OAuthToken != "" {
		t.OAuth = &oauth2.Token{AccessToken: cfg.OAuthToken, TokenType: "OAuth"}
	}
	return t
}

// Premium reports whether the token carries OAuth credentials.
func (t Token) Premium() bool {
	return t.OAuth != nil && t.OAuth.AccessToken != ""
}

// Bootstrap discovers client_id and app_version from the public site.
//
// The app version sits inline in the landing page; the client_id hides in
// the last crossorigin script bundle referenced there.
func Bootstrap(ctx context.Context, client *http.Client) (Token, error) {
	if client == nil {
		client = http.DefaultClient
	}

	page, err := fetchText(ctx, client, siteURL)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", shared.ErrSessionBootstrap, err)
	}

	srcMatches := scriptSrcRe.FindAllStringSubmatch(page, -1)
	if len(srcMatches) == 0 {
		return Token{}, fmt.Errorf("%w: no script bundles on landing page", shared.ErrSessionBootstrap)
	}
	scriptURL := srcMatches[len(srcMatches)-1][1]

	versionMatch := appVersionRe.FindStringSubmatch(page)
	if versionMatch == nil {
		return Token{}, fmt.Errorf("%w: app version not found", shared.ErrSessionBootstrap)
	}

	script, err := fetchText(ctx, client, scriptURL)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", shared.ErrSessionBootstrap, err)
	}

	idMatch := clientIDRe.FindStringSubmatch(script)
	if idMatch == nil {
		return Token{}, fmt.Errorf("%w: client_id not found in script bundle", shared.ErrSessionBootstrap)
	}

	return Token{
		ClientID:   idMatch[1],
		AppVersion: versionMatch[1],
		AppLocale:  "en",
	}, nil
}

// Verify checks an OAuth token against the session endpoint. A 200 means
// the token is good; anything else is reported as [shared.ErrTokenInvalid].
func Verify(ctx context.Context, client *http.Client, clientID, accessToken string) error {
	if client == nil {
		client = http.DefaultClient
	}
	if accessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrTokenInvalid)
	}

	payload := fmt.Sprintf(`{"session":{"access_token":%q}}`, accessToken)
	url := fmt.Sprintf("%s?client_id=%s", verifyAuthURL, clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(payload)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenInvalid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrTokenInvalid, resp.StatusCode)
	}
	return nil
}

func fetchText(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}
