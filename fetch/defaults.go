package fetch

import "time"

// Library defaults. No environment variables or config files are
// consulted; callers override these per-call through RequestInit.
const (
	defaultMethod                  = "GET"
	defaultRedirect RedirectPolicy = RedirectFollow
	defaultCompress                = true
	defaultSize     int64          = 0
)

// defaultTimeout is the zero value: no request-timeout unless the
// caller sets RequestInit.Timeout.
const defaultTimeout time.Duration = 0
