package fetch

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sofatutor/gofetch/fetcherr"
)

// Options configures a top-level Fetch call beyond what RequestInit
// already exposes: the underlying transport to dispatch through and
// an optional structured logger (§4.8, ambient, not part of the
// WHATWG surface).
type Options struct {
	Transport RoundTripper
	Logger    *zap.Logger
}

// defaultTransport is used when Options.Transport is nil. No
// client-level timeout is set here; timeouts are enforced per-request
// by the driver instead (§4.4).
var defaultTransport RoundTripper = http.DefaultTransport

// Fetch is the single top-level entry point: it validates url_or_req,
// builds the initial Request, drives it (and any redirects) to a
// final Response, and returns it with its body still unconsumed
// (§6 Entry point).
func Fetch(ctx context.Context, urlOrReq any, init RequestInit, opts Options) (*Response, error) {
	req, err := asRequest(urlOrReq, init)
	if err != nil {
		return nil, err
	}

	transport := opts.Transport
	if transport == nil {
		transport = defaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	req.SetLogger(logger)

	d := newDriver(transport, logger)
	return d.run(ctx, req)
}

// asRequest accepts either a raw URL string or an already-built
// *Request, mirroring fetch(url_or_request, options?) (§6).
func asRequest(urlOrReq any, init RequestInit) (*Request, error) {
	switch v := urlOrReq.(type) {
	case string:
		return NewRequest(v, init)
	case *Request:
		return NewRequestFrom(v, init)
	default:
		return nil, fetcherr.NewArgument("fetch: url_or_request must be a string or *Request")
	}
}
