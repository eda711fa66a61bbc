package httpapi

import (
	"sync"
	"time"
)

const defaultMaxBody int64 = 1 << 20

// apiOptions are the process-wide settings of the API surface. Handlers read a
// copy through currentOptions so a concurrent Set* never tears a request.
type apiOptions struct {
	// MaxBody bounds PATCH bodies.
	MaxBody int64
	// RefreshTimeout bounds how long POST /refresh waits. Zero waits until the
	// client or the server gives up.
	RefreshTimeout time.Duration
	CORS           corsOptions
}

// corsOptions are opt-in. When disabled no CORS middleware is mounted.
type corsOptions struct {
	Enabled bool
	Origins []string
	Methods []string
	Headers []string
}

var (
	optsMu sync.RWMutex
	opts   = apiOptions{MaxBody: defaultMaxBody}
)

func currentOptions() apiOptions {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts
}

func updateOptions(fn func(*apiOptions)) {
	optsMu.Lock()
	fn(&opts)
	optsMu.Unlock()
}

// SetMaxBodyBytes sets the PATCH body limit; n <= 0 restores 1 MiB.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		n = defaultMaxBody
	}
	updateOptions(func(o *apiOptions) { o.MaxBody = n })
}

// SetRefreshTimeout sets the refresh wait limit (0 disables).
func SetRefreshTimeout(d time.Duration) {
	updateOptions(func(o *apiOptions) { o.RefreshTimeout = max(d, 0) })
}

// SetCORSOptions configures CORS for routers built afterwards.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	c := corsOptions{
		Enabled: enabled,
		Origins: append([]string(nil), origins...),
		Methods: append([]string(nil), methods...),
		Headers: append([]string(nil), headers...),
	}
	updateOptions(func(o *apiOptions) { o.CORS = c })
}
