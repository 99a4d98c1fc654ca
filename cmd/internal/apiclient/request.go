package apiclient

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request describes one backend call. It is passed by value; a re-issue after
// refresh is a copy with the attempt count bumped, never a mutation of the
// caller's descriptor.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded on every attempt. Nil sends no body.
	Body   any
	Header http.Header
	// Base overrides the client's base URL for this request.
	Base string

	attempt int
}

// Attempt is 0 for the original send and 1 for the single re-issue.
func (r Request) Attempt() int { return r.attempt }

// Retried reports whether this request is the re-issue after a refresh.
func (r Request) Retried() bool { return r.attempt > 0 }

func (r Request) retry() Request {
	next := r
	next.attempt = r.attempt + 1
	if r.Header != nil {
		next.Header = r.Header.Clone()
	}
	if r.Query != nil {
		next.Query = cloneValues(r.Query)
	}
	return next
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Get builds a GET request.
func Get(path string, query url.Values) Request {
	return Request{Method: http.MethodGet, Path: path, Query: query}
}

// Post builds a POST request with a JSON body.
func Post(path string, body any) Request {
	return Request{Method: http.MethodPost, Path: path, Body: body}
}

// Patch builds a PATCH request with a JSON body.
func Patch(path string, body any) Request {
	return Request{Method: http.MethodPatch, Path: path, Body: body}
}

// Delete builds a DELETE request.
func Delete(path string) Request {
	return Request{Method: http.MethodDelete, Path: path}
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	// Attempt mirrors Request.Attempt of the send that produced this response.
	Attempt int
}

// DecodeJSON unmarshals the body into dst.
func (r *Response) DecodeJSON(dst any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, dst)
}
