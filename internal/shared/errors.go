package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Session errors
	ErrSessionBootstrap = fmt.Errorf("session bootstrap failed")
	ErrTokenInvalid     = fmt.Errorf("oauth token rejected")

	// API and stream errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrUpstreamFetch   = fmt.Errorf("upstream fetch failed")
	ErrNoUsableStream  = fmt.Errorf("no usable stream")
	ErrItemNotFound    = fmt.Errorf("item not found")
	ErrUnsupportedKind = fmt.Errorf("unsupported item kind")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
