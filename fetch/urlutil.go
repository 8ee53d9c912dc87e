package fetch

import "net/url"

// parseAbsoluteURL parses rawURL and additionally requires it to be
// absolute (have both a scheme and a host), matching the Fetch spec's
// "Only absolute URLs are supported" failure mode.
func parseAbsoluteURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errNotAbsolute
	}
	return u, nil
}

var errNotAbsolute = errNotAbsoluteURL{}

type errNotAbsoluteURL struct{}

func (errNotAbsoluteURL) Error() string { return "url is not absolute" }

// sameHostname reports whether a and b share the same hostname,
// ignoring port, case-insensitively (§4.4 Authorization stripping).
func sameHostname(a, b *url.URL) bool {
	return equalFoldASCII(a.Hostname(), b.Hostname())
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
