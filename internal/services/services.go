// package services contains the typed SoundCloud api-v2 client and the two
// pieces of real logic built on top of it: transcoding selection and
// metadata reconciliation.
package services

import (
	"fmt"
	"net/http"

	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
)

// Cache is the transport-side read-through cache for GET responses.
//
// Implementations must be safe for concurrent use. A nil Cache disables
// caching entirely.
type Cache interface {
	// Get returns the cached body for url, if any.
	Get(url string) ([]byte, bool)

	// Put stores the body for url, replacing any previous entry.
	Put(url string, body []byte) error
}

// UpstreamError reports a failed mandatory fetch, carrying the HTTP status
// so callers can tell private content from generic failure.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%v: status %d", shared.ErrUpstreamFetch, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return shared.ErrUpstreamFetch
}

// Private reports whether the status suggests the item is private or the
// session token is not entitled to it.
func (e *UpstreamError) Private() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
