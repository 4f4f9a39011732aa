package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// File is one part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// Request describes a single call to the ClinikPe API. Build it with New and
// the chained setters; errors raised while building surface from Agent.Do.
type Request struct {
	method      string
	route       string
	path        string
	query       url.Values
	headers     http.Header
	body        []byte
	contentType string
	err         error
}

// New starts a GET request for a route template such as
// "/organization/{org}/center/{center}". Each {placeholder} is replaced, in
// order, by the matching path-escaped param. The template itself is kept as
// the metrics/tracing route label.
func New(route string, params ...string) *Request {
	r := &Request{
		method:  http.MethodGet,
		route:   route,
		query:   url.Values{},
		headers: http.Header{},
	}
	r.path, r.err = expandRoute(route, params)
	return r
}

// Method sets the HTTP method.
func (r *Request) Method(method string) *Request {
	r.method = strings.ToUpper(method)
	return r
}

// JSON encodes body as the JSON request payload.
func (r *Request) JSON(body any) *Request {
	if body == nil {
		return r
	}
	payload, err := json.Marshal(body)
	if err != nil {
		r.setErr(fmt.Errorf("marshal request: %w", err))
		return r
	}
	r.body = payload
	r.contentType = "application/json"
	return r
}

// Multipart encodes fields and files as multipart/form-data.
func (r *Request) Multipart(fields map[string]string, files []File) *Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			r.setErr(fmt.Errorf("multipart field %s: %w", key, err))
			return r
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			r.setErr(fmt.Errorf("multipart file %s: %w", f.Field, err))
			return r
		}
		if _, err := io.Copy(part, bytes.NewReader(f.Content)); err != nil {
			r.setErr(fmt.Errorf("multipart file %s: %w", f.Field, err))
			return r
		}
	}
	if err := w.Close(); err != nil {
		r.setErr(fmt.Errorf("multipart close: %w", err))
		return r
	}
	r.body = buf.Bytes()
	r.contentType = w.FormDataContentType()
	return r
}

// Query adds a query parameter. Blank values are skipped so unset filters
// never reach the backend.
func (r *Request) Query(key, value string) *Request {
	if strings.TrimSpace(value) == "" {
		return r
	}
	r.query.Add(key, value)
	return r
}

// Header sets a request header.
func (r *Request) Header(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// Route returns the route template the request was built from.
func (r *Request) Route() string { return r.route }

// URL resolves the request against baseURL.
func (r *Request) URL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	return u
}

func (r *Request) setErr(err error) {
	if r.err == nil {
		r.err = err
	}
}

func expandRoute(route string, params []string) (string, error) {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	segments := strings.Split(route, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		if next >= len(params) {
			return route, fmt.Errorf("route %s: missing value for %s", route, seg)
		}
		value := strings.TrimSpace(params[next])
		if value == "" {
			return route, fmt.Errorf("route %s: empty value for %s", route, seg)
		}
		segments[i] = url.PathEscape(value)
		next++
	}
	if next != len(params) {
		return route, fmt.Errorf("route %s: %d params given, %d used", route, len(params), next)
	}
	return strings.Join(segments, "/"), nil
}
