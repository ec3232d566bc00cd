package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

type requestOptions struct {
	public    bool
	tolerated map[int]bool
	headers   http.Header
	query     url.Values
}

type Option func(*requestOptions)

// Tolerate makes the given statuses resolve to an empty result instead of an
// HTTPError. Dashboard collections use Tolerate(404).
func Tolerate(statuses ...int) Option {
	return func(o *requestOptions) {
		if o.tolerated == nil {
			o.tolerated = make(map[int]bool)
		}
		for _, s := range statuses {
			o.tolerated[s] = true
		}
	}
}

// Public sends the request without a bearer token and without requiring a session.
func Public() Option {
	return func(o *requestOptions) { o.public = true }
}

// WithHeader adds a header. Authorization, Content-Type, Accept and
// X-Request-ID are owned by the client and cannot be replaced.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Add(key, value)
	}
}

func WithQuery(values url.Values) Option {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(url.Values)
		}
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

func collectOptions(opts []Option) requestOptions {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	return ro
}

var reservedHeaders = map[string]bool{
	"Authorization": true,
	"Content-Type":  true,
	"Accept":        true,
	"X-Request-Id":  true,
}

type requestIDKey struct{}

// WithRequestID makes outbound calls made with ctx carry id as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
