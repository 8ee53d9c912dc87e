package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sofatutor/gofetch/fetcherr"
	"github.com/sofatutor/gofetch/internal/decode"
	"github.com/sofatutor/gofetch/internal/fetchlog"
	"github.com/sofatutor/gofetch/internal/headers"
)

// RoundTripper is the platform HTTP stack collaborator: anything that
// can perform a single HTTP exchange. Any http.RoundTripper (such as
// http.DefaultTransport) satisfies it; *http.Client does not, since the
// driver calls RoundTrip directly and follows redirects itself.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// driver runs the Redirect Driver state machine of §4.4: one exchange
// per hop, inspecting 3xx statuses to decide whether/how to continue.
type driver struct {
	transport RoundTripper
	logger    *zap.Logger
}

func newDriver(transport RoundTripper, logger *zap.Logger) *driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &driver{transport: transport, logger: logger}
}

// ctxClosingBody releases the per-exchange child context once the
// response body is closed, instead of at headers-received time, so the
// request-timeout deadline never reaches into the body-read phase.
type ctxClosingBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *ctxClosingBody) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

var redirectStatuses = map[int]bool{
	http.StatusMovedPermanently:  true, // 301
	http.StatusFound:             true, // 302
	http.StatusSeeOther:          true, // 303
	http.StatusTemporaryRedirect: true, // 307
	http.StatusPermanentRedirect: true, // 308
}

// run drives req (and any redirect hops it triggers) to a final
// Response, or a FetchError/ArgumentError on failure.
func (d *driver) run(ctx context.Context, req *Request) (*Response, error) {
	current := req
	for {
		resp, err := d.exchange(ctx, current)
		if err != nil {
			return nil, err
		}
		if !redirectStatuses[resp.status] {
			return resp, nil
		}

		next, handled, terr := d.handleRedirect(current, resp)
		if terr != nil {
			resp.discardStream()
			return nil, terr
		}
		if !handled {
			return resp, nil
		}
		resp.discardStream()
		current = next
	}
}

// exchange performs one network round trip for req: compose headers,
// issue the request under a connect/headers-received timeout, and hand
// the raw response to the Response Decoder.
//
// The timeout must cover dispatch through headers-received and then be
// disarmed (§4.4) without also killing the body stream the caller will
// read afterward — so RoundTrip runs in its own goroutine racing a
// timer, rather than relying on context cancellation to bound it
// (canceling the request's context would abort in-flight body reads
// too, since net/http ties the whole exchange to one context). The
// child context is canceled on the timeout path, when building or
// sending the request fails, or once the response body is closed, via
// ctxClosingBody.
func (d *driver) exchange(ctx context.Context, req *Request) (*Response, error) {
	outHeaders := guardHeaders(req.Headers(), req.body, req.compress)

	childCtx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(childCtx, req.method, req.url, bodyReader(req.body))
	if err != nil {
		cancel()
		return nil, fetcherr.NewSystem(err)
	}
	httpReq.Header = outHeaders.ToHTTPHeader()
	if n, ok := getTotalBytes(req.body); ok {
		httpReq.ContentLength = n
	}

	type rtResult struct {
		resp *http.Response
		err  error
	}
	resultCh := make(chan rtResult, 1)
	start := time.Now()
	go func() {
		resp, rtErr := d.transport.RoundTrip(httpReq)
		resultCh <- rtResult{resp, rtErr}
	}()

	var timerC <-chan time.Time
	if req.timeout > 0 {
		timer := time.NewTimer(req.timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	var httpResp *http.Response
	select {
	case r := <-resultCh:
		if r.err != nil {
			cancel()
			return nil, fetcherr.NewSystem(r.err)
		}
		httpResp = r.resp
	case <-timerC:
		cancel()
		return nil, fetcherr.NewRequestTimeout(req.url, req.timeout)
	}

	httpResp.Body = &ctxClosingBody{ReadCloser: httpResp.Body, cancel: cancel}
	statusText := strings.TrimPrefix(httpResp.Status, strconv.Itoa(httpResp.StatusCode)+" ")

	d.logger.Debug("exchange completed",
		zap.String(fetchlog.FieldRequestID, req.reqID.String()),
		zap.String(fetchlog.FieldURL, req.url),
		zap.String(fetchlog.FieldMethod, req.method),
		zap.Int(fetchlog.FieldStatusCode, httpResp.StatusCode),
		zap.Int(fetchlog.FieldRedirectCount, req.counter),
		zap.Int64(fetchlog.FieldDurationMs, time.Since(start).Milliseconds()),
	)

	if redirectStatuses[httpResp.StatusCode] {
		respHeaders, _ := headers.FromMultiMap(httpResp.Header)
		resp := NewResponse(StreamBody(httpResp.Body), ResponseInit{
			URL:        req.url,
			Status:     httpResp.StatusCode,
			StatusText: statusText,
			Headers:    respHeaders,
		}).withLimits(req.size, req.timeout)
		resp.SetLogger(d.logger)
		return resp, nil
	}

	decoded := decode.Select(httpResp.Header.Get("Content-Encoding"), httpResp.StatusCode, req.method, req.compress, httpResp.Body, d.logger)
	respHeaders, _ := headers.FromMultiMap(httpResp.Header)
	resp := NewResponse(StreamBody(decoded), ResponseInit{
		URL:        req.url,
		Status:     httpResp.StatusCode,
		StatusText: statusText,
		Headers:    respHeaders,
	}).withLimits(req.size, req.timeout)
	resp.SetLogger(d.logger)
	return resp, nil
}

// handleRedirect implements §4.4's redirect-handling rules given a
// redirect response on current. Returns handled == false when the
// caller should treat resp as the final answer (manual policy).
func (d *driver) handleRedirect(current *Request, resp *Response) (*Request, bool, error) {
	switch current.redirect {
	case RedirectManual:
		return nil, false, nil
	case RedirectError:
		return nil, false, fetcherr.NewNoRedirect(current.url)
	}

	nextCounter := current.counter + 1
	if nextCounter > current.follow {
		return nil, false, fetcherr.NewMaxRedirect(current.url)
	}

	location, has := resp.h.Get("Location")
	if !has || location == "" {
		return nil, false, fetcherr.NewInvalidRedirect(current.url, nil)
	}

	curURL, _ := parseAbsoluteURL(current.url)
	nextURL, err := url.Parse(location)
	if err != nil {
		return nil, false, fetcherr.NewInvalidRedirect(current.url, err)
	}
	resolved := curURL.ResolveReference(nextURL)

	nextMethod := current.method
	nextBody := current.body
	nextHeaders := current.Headers().Clone()

	switch resp.status {
	case http.StatusMovedPermanently, http.StatusFound:
		if current.method == http.MethodPost {
			nextMethod = http.MethodGet
			nextBody = NullBody()
			nextHeaders.Del("Content-Length")
			nextHeaders.Del("Content-Type")
		}
	case http.StatusSeeOther:
		if current.method != http.MethodGet && current.method != http.MethodHead {
			nextMethod = http.MethodGet
			nextBody = NullBody()
			nextHeaders.Del("Content-Length")
			nextHeaders.Del("Content-Type")
		}
	case http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		// method and body are preserved unchanged.
	}

	if !sameHostname(curURL, resolved) {
		nextHeaders.Del("Authorization")
	}

	next := current.withNextHop(resolved.String(), nextMethod, nextBody, nextHeaders, nextCounter)
	return next, true, nil
}
