package api

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestInterceptor mutates an outgoing request before dispatch. A
// returned error aborts the call as a request configuration error.
type RequestInterceptor func(req *http.Request) error

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// requestStage returns the built-in interceptors in dispatch order. They
// run after any caller-supplied interceptor so their guarantees hold.
func (c *Client) requestStage() []RequestInterceptor {
	return []RequestInterceptor{
		setRequestID,
		c.attachBearer,
		stripMultipartContentType,
	}
}

func setRequestID(req *http.Request) error {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return nil
}

// attachBearer sets the Authorization header when a non-empty token is
// stored and the request targets the backend, and removes it otherwise.
func (c *Client) attachBearer(req *http.Request) error {
	if c.session != nil && c.ownsURL(req.URL) {
		if tok, ok := c.session.Token(); ok && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			return nil
		}
	}
	req.Header.Del("Authorization")
	return nil
}

// stripMultipartContentType drops any Content-Type set on a multipart
// request; boundaryTransport supplies the correct one.
func stripMultipartContentType(req *http.Request) error {
	if _, ok := formFrom(req.Context()); ok {
		req.Header.Del("Content-Type")
	}
	return nil
}
