package fetch

import (
	"context"
	"time"

	"github.com/sofatutor/gofetch/internal/headers"
)

// ResponseInit carries the optional constructor fields of §4.3: url,
// status (default 200), statusText (default "OK"), headers.
type ResponseInit struct {
	URL        string
	Status     int
	StatusText string
	Headers    *headers.Headers
}

// Response is the result of a single fetch exchange: status, final
// URL, headers, and a lazily-consumable body. Status text is never
// synthesized from the code; the caller (the Redirect Driver) supplies
// it from the wire.
type Response struct {
	*BodyHolder

	url        string
	status     int
	statusText string
	h          *headers.Headers
	size       int64
	timeout    time.Duration
}

// NewResponse builds a Response from an optional body and init.
func NewResponse(body Body, init ResponseInit) *Response {
	status := init.Status
	if status == 0 {
		status = 200
	}
	statusText := init.StatusText
	if statusText == "" {
		statusText = "OK"
	}
	h := init.Headers
	if h == nil {
		h = headers.New()
	}
	return &Response{
		BodyHolder: newBodyHolder(body, init.URL),
		url:        init.URL,
		status:     status,
		statusText: statusText,
		h:          h,
	}
}

// withLimits attaches the size cap / timeout the Body Mixin methods
// should enforce when consuming this Response's body; set by the
// driver from the originating Request's options (§4.4 data flow).
func (resp *Response) withLimits(size int64, timeout time.Duration) *Response {
	resp.size = size
	resp.timeout = timeout
	return resp
}

func (resp *Response) URL() string               { return resp.url }
func (resp *Response) Status() int                { return resp.status }
func (resp *Response) StatusText() string         { return resp.statusText }
func (resp *Response) Headers() *headers.Headers  { return resp.h }
func (resp *Response) Ok() bool                   { return resp.status >= 200 && resp.status < 300 }

func (resp *Response) Buffer(ctx context.Context) ([]byte, error) {
	return resp.BodyHolder.Buffer(ctx, resp.size, resp.timeout)
}

func (resp *Response) ArrayBuffer(ctx context.Context) ([]byte, error) {
	return resp.BodyHolder.ArrayBuffer(ctx, resp.size, resp.timeout)
}

func (resp *Response) Text(ctx context.Context) (string, error) {
	return resp.BodyHolder.Text(ctx, resp.size, resp.timeout)
}

func (resp *Response) JSON(ctx context.Context) (any, error) {
	return resp.BodyHolder.JSON(ctx, resp.size, resp.timeout)
}

func (resp *Response) Blob(ctx context.Context) (*Blob, error) {
	ct, _ := resp.h.Get("Content-Type")
	return resp.BodyHolder.Blob(ctx, ct, resp.size, resp.timeout)
}

// Clone returns an independent copy per §4.7; fails if the body has
// already been consumed. A stream body is teed so both the original
// and the clone can be read concurrently without dropping bytes.
func (resp *Response) Clone() (*Response, error) {
	holder, err := cloneBody(resp.BodyHolder)
	if err != nil {
		return nil, err
	}
	return &Response{
		BodyHolder: holder,
		url:        resp.url,
		status:     resp.status,
		statusText: resp.statusText,
		h:          resp.h.Clone(),
		size:       resp.size,
		timeout:    resp.timeout,
	}, nil
}
