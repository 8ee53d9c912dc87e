package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sofatutor/gofetch/fetcherr"
	"github.com/sofatutor/gofetch/internal/headers"
)

// RedirectPolicy selects how the Redirect Driver handles a 3xx response.
type RedirectPolicy string

const (
	RedirectFollow RedirectPolicy = "follow"
	RedirectManual RedirectPolicy = "manual"
	RedirectError  RedirectPolicy = "error"
)

const defaultFollow = 20

// RequestInit carries the per-call overrides accepted by NewRequest,
// mirroring the option keys of §6's table.
type RequestInit struct {
	Method   string
	Headers  *headers.Headers
	Body     *Body
	Redirect RedirectPolicy
	Follow   *int
	Compress *bool
	Size     *int64
	Timeout  *time.Duration
	Agent    any
}

// Request is the immutable description of a single HTTP exchange
// attempt. Constructing one from another Request inherits method, URL,
// headers, follow, counter, compress and body before per-option
// overrides apply (§4.3); the inner *BodyHolder is shared by reference,
// not cloned, so bodyUsed propagates between the two (§3).
type Request struct {
	*BodyHolder

	method   string
	url      string
	h        *headers.Headers
	redirect RedirectPolicy
	follow   int
	counter  int
	compress bool
	size     int64
	timeout  time.Duration
	agent    any

	// reqID correlates every hop of one logical fetch call in the
	// driver's debug logs; it is not part of the wire protocol.
	reqID uuid.UUID
}

// NewRequest builds a Request from a URL string, applying init. Method
// defaults to GET; a non-null body on GET/HEAD fails construction, per
// the invariant in §3.
func NewRequest(rawURL string, init RequestInit) (*Request, error) {
	return newRequestFrom(nil, rawURL, init)
}

// NewRequestFrom builds a Request by inheriting from base, then applying
// per-option overrides in init. Overriding Headers replaces rather than
// merges (§4.3).
func NewRequestFrom(base *Request, init RequestInit) (*Request, error) {
	if base == nil {
		return nil, fetcherr.NewArgument("NewRequestFrom requires a non-nil base Request")
	}
	return newRequestFrom(base, base.url, init)
}

func newRequestFrom(base *Request, rawURL string, init RequestInit) (*Request, error) {
	method := defaultMethod
	var h *headers.Headers
	redirect := defaultRedirect
	follow := defaultFollow
	compress := defaultCompress
	size := defaultSize
	timeout := defaultTimeout
	var counter int
	var agent any
	var holder *BodyHolder

	var reqID uuid.UUID

	if base != nil {
		method = base.method
		h = base.Headers().Clone()
		redirect = base.redirect
		follow = base.follow
		compress = base.compress
		size = base.size
		timeout = base.timeout
		counter = base.counter
		agent = base.agent
		holder = base.BodyHolder
		reqID = base.reqID
	} else {
		h = headers.New()
		holder = newBodyHolder(NullBody(), rawURL)
		reqID = uuid.New()
	}

	if init.Method != "" {
		method = strings.ToUpper(init.Method)
	}
	if init.Headers != nil {
		h = init.Headers.Clone()
	}
	if init.Redirect != "" {
		redirect = init.Redirect
	}
	if init.Follow != nil {
		follow = *init.Follow
	}
	if init.Compress != nil {
		compress = *init.Compress
	}
	if init.Size != nil {
		size = *init.Size
	}
	if init.Timeout != nil {
		timeout = *init.Timeout
	}
	if init.Agent != nil {
		agent = init.Agent
	}
	if init.Body != nil {
		// An explicit body override does not inherit the base's holder:
		// it is new state, not the same body transferred by reference.
		holder = newBodyHolder(*init.Body, rawURL)
	}

	if (method == "GET" || method == "HEAD") && !holder.body.IsNull() {
		return nil, fetcherr.NewArgument("request with method %s cannot have a body", method)
	}
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	holder.url = rawURL
	return &Request{
		BodyHolder: holder,
		method:     method,
		url:        rawURL,
		h:          h,
		redirect:   redirect,
		follow:     follow,
		counter:    counter,
		compress:   compress,
		size:       size,
		timeout:    timeout,
		agent:      agent,
		reqID:      reqID,
	}, nil
}

func validateURL(rawURL string) error {
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return fetcherr.NewArgument("Only absolute URLs are supported")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fetcherr.NewArgument("Only HTTP(S) protocols are supported")
	}
	return nil
}

func (r *Request) Method() string            { return r.method }
func (r *Request) URL() string               { return r.url }
func (r *Request) Redirect() RedirectPolicy  { return r.redirect }
func (r *Request) Follow() int               { return r.follow }
func (r *Request) Counter() int              { return r.counter }
func (r *Request) Compress() bool            { return r.compress }
func (r *Request) Size() int64               { return r.size }
func (r *Request) Timeout() time.Duration    { return r.timeout }
func (r *Request) Agent() any                { return r.agent }

// ReqID returns the correlation ID shared across every hop of one
// logical fetch call; it is a logging aid only, never sent on the wire.
func (r *Request) ReqID() uuid.UUID { return r.reqID }
// Headers returns the Request's header multimap. Request keeps its own
// headers field rather than pushing them into BodyHolder, since
// BodyHolder's job ends at body bytes (§4.1) and headers belong to the
// Request/Response surfaces (§4.3).
func (r *Request) Headers() *headers.Headers { return r.h }

func (r *Request) Buffer(ctx context.Context) ([]byte, error) {
	return r.BodyHolder.Buffer(ctx, r.size, r.timeout)
}

func (r *Request) ArrayBuffer(ctx context.Context) ([]byte, error) {
	return r.BodyHolder.ArrayBuffer(ctx, r.size, r.timeout)
}

func (r *Request) Text(ctx context.Context) (string, error) {
	return r.BodyHolder.Text(ctx, r.size, r.timeout)
}

func (r *Request) JSON(ctx context.Context) (any, error) {
	return r.BodyHolder.JSON(ctx, r.size, r.timeout)
}

func (r *Request) Blob(ctx context.Context) (*Blob, error) {
	ct, _ := r.h.Get("Content-Type")
	return r.BodyHolder.Blob(ctx, ct, r.size, r.timeout)
}

// Clone returns an independent copy per §4.7; fails if the body has
// already been consumed.
func (r *Request) Clone() (*Request, error) {
	holder, err := cloneBody(r.BodyHolder)
	if err != nil {
		return nil, err
	}
	return &Request{
		BodyHolder: holder,
		method:     r.method,
		url:        r.url,
		h:          r.h.Clone(),
		redirect:   r.redirect,
		follow:     r.follow,
		counter:    r.counter,
		compress:   r.compress,
		size:       r.size,
		timeout:    r.timeout,
		agent:      r.agent,
		reqID:      r.reqID,
	}, nil
}

// withNextHop returns a new Request for the next redirect hop: same
// options, the given headers, new url/method/body/counter, sharing nothing with
// the previous hop's BodyHolder (the previous hop's body is already
// spent or intentionally dropped per the method-rewrite rules in §4.4).
func (r *Request) withNextHop(nextURL, nextMethod string, nextBody Body, nextHeaders *headers.Headers, nextCounter int) *Request {
	holder := newBodyHolder(nextBody, nextURL)
	holder.SetLogger(r.logger)
	nr := &Request{
		BodyHolder: holder,
		method:     nextMethod,
		url:        nextURL,
		redirect:   r.redirect,
		follow:     r.follow,
		counter:    nextCounter,
		compress:   r.compress,
		size:       r.size,
		timeout:    r.timeout,
		agent:      r.agent,
		reqID:      r.reqID,
	}
	nr.h = nextHeaders
	return nr
}
