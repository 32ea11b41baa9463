package api

import "net/http"

// boundaryTransport fills in the Content-Type of multipart requests from
// the form itself, after every request interceptor has run. Requests that
// already carry a Content-Type are passed through untouched.
type boundaryTransport struct {
	base http.RoundTripper
}

func (t *boundaryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	form, ok := formFrom(req.Context())
	if !ok || req.Header.Get("Content-Type") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Content-Type", form.ContentType())
	return t.base.RoundTrip(clone)
}
