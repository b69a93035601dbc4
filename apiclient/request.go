package apiclient

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/sjson"
)

var errIncompleteBaseURL = errors.New("base url must be absolute (scheme and host)")

// Request describes an HTTP call without executing it.
//
// Request is an immutable value: every setter returns an updated copy and
// leaves the receiver untouched, so a Request can be shared between goroutines
// and reused as a template.
//
//	req := apiclient.Post("/users").
//	    Header("Idempotency-Key", key).
//	    JSONBody(newUser)
//
// The base URL is injected by the Client when the request is resolved, so only
// the path is configured here unless BaseURL is used to override it.
type Request struct {
	method   Method
	path     string
	header   http.Header
	query    map[string]any
	body     []byte
	encoding BodyEncoding
	params   ParameterEncoding
	baseURL  string

	// err holds a deferred body encoding failure, returned by Resolve.
	err error
}

// NewRequest creates a Request for the given method and path.
//
// The path always gets a leading "/". A query string embedded in the path
// ("search?q=go") is moved into the query parameters.
func NewRequest(method Method, path string) Request {
	p, embedded := splitPath(path)
	r := Request{
		method: method,
		path:   p,
		params: MethodDependent,
	}
	if len(embedded) > 0 {
		r.query = make(map[string]any, len(embedded))
		for k, v := range embedded {
			if len(v) == 1 {
				r.query[k] = v[0]
			} else {
				r.query[k] = slices.Clone(v)
			}
		}
	}
	return r
}

// Get creates a GET request description.
func Get(path string) Request { return NewRequest(MethodGet, path) }

// Post creates a POST request description.
func Post(path string) Request { return NewRequest(MethodPost, path) }

// Put creates a PUT request description.
func Put(path string) Request { return NewRequest(MethodPut, path) }

// Patch creates a PATCH request description.
func Patch(path string) Request { return NewRequest(MethodPatch, path) }

// Delete creates a DELETE request description.
func Delete(path string) Request { return NewRequest(MethodDelete, path) }

// Method returns the HTTP method.
func (r Request) Method() Method { return r.method }

// Path returns the normalized path, always starting with "/".
func (r Request) Path() string { return r.path }

// HTTPHeader returns a copy of the request headers.
func (r Request) HTTPHeader() http.Header { return r.header.Clone() }

// QueryParams returns a copy of the query parameters.
func (r Request) QueryParams() map[string]any { return maps.Clone(r.query) }

// Body returns a copy of the body bytes, or nil when no body is set.
func (r Request) Body() []byte { return slices.Clone(r.body) }

// BodyEncoding returns the encoding of the last body set through JSONBody, FormBody or Params.
func (r Request) BodyEncoding() BodyEncoding { return r.encoding }

// BaseURLOverride returns the base URL set with BaseURL, or "".
func (r Request) BaseURLOverride() string { return r.baseURL }

// Err returns the deferred body encoding error, if any.
func (r Request) Err() error { return r.err }

// String returns "METHOD /path".
func (r Request) String() string {
	return string(r.method) + " " + r.path
}

// Header sets a header, replacing any previous value for the same name.
func (r Request) Header(name, value string) Request {
	r.header = r.header.Clone()
	if r.header == nil {
		r.header = make(http.Header)
	}
	r.header.Set(name, value)
	return r
}

// Headers sets several headers at once.
func (r Request) Headers(headers map[string]string) Request {
	r.header = r.header.Clone()
	if r.header == nil {
		r.header = make(http.Header, len(headers))
	}
	for k, v := range headers {
		r.header.Set(k, v)
	}
	return r
}

// Query replaces all query parameters.
//
// Values are formatted when the request is resolved: strings, booleans,
// integers, floats and fmt.Stringer are supported, a []string adds one item
// per element.
func (r Request) Query(params map[string]any) Request {
	r.query = maps.Clone(params)
	return r
}

// AddQuery adds or replaces a single query parameter.
func (r Request) AddQuery(name string, value any) Request {
	r.query = maps.Clone(r.query)
	if r.query == nil {
		r.query = make(map[string]any)
	}
	r.query[name] = value
	return r
}

// JSONBody encodes v as the JSON body and sets the JSON Content-Type.
//
// An encoding failure is kept and returned as an *EncodeError when the
// request is resolved.
//
//	apiclient.Post("/users").JSONBody(user)
func (r Request) JSONBody(v any) Request {
	data, err := json.Marshal(v)
	if err != nil {
		r.err = &EncodeError{Err: err}
		data = nil
	}
	return r.withBody(data, EncodingJSON)
}

// FormBody sets an application/x-www-form-urlencoded body.
//
// Keys and values are query-escaped and joined with "&" and "=", keys sorted.
// A space is written as "+", not "%20".
//
//	apiclient.Post("/login").FormBody(map[string]string{
//	    "username": "john",
//	    "password": "secret",
//	})
func (r Request) FormBody(params map[string]string) Request {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return r.withBody([]byte(values.Encode()), EncodingForm)
}

// RawBody sets the body bytes as-is. The Content-Type header is left unchanged.
func (r Request) RawBody(body []byte) Request {
	r.body = slices.Clone(body)
	return r
}

// JSONField sets a single field of the JSON body using an sjson path,
// creating the body when none is set.
//
//	apiclient.Patch("/users/1").
//	    JSONField("profile.name", "Jane").
//	    JSONField("tags.-1", "admin")
func (r Request) JSONField(path string, value any) Request {
	base := r.body
	if len(base) == 0 {
		base = []byte("{}")
	}
	data, err := sjson.SetBytes(slices.Clone(base), path, value)
	if err != nil {
		r.err = &EncodeError{Err: err}
		return r
	}
	return r.withBody(data, EncodingJSON)
}

// Encoding sets the ParameterEncoding used by Params.
func (r Request) Encoding(pe ParameterEncoding) Request {
	r.params = pe
	return r
}

// Params places parameters according to the request's ParameterEncoding:
// in the query string or in a JSON or form body.
//
//	apiclient.Get("/search").Params(map[string]any{"q": "go"})   // ?q=go
//	apiclient.Post("/search").Params(map[string]any{"q": "go"})  // {"q":"go"}
func (r Request) Params(params map[string]any) Request {
	if r.params.LocationFor(r.method) == LocationQuery {
		r.query = maps.Clone(r.query)
		if r.query == nil {
			r.query = make(map[string]any, len(params))
		}
		maps.Copy(r.query, params)
		return r
	}

	if r.params.Body == EncodingForm {
		form := make(map[string]string, len(params))
		for k, v := range params {
			form[k] = strings.Join(formatQueryValue(v), ",")
		}
		return r.FormBody(form)
	}
	return r.JSONBody(params)
}

// BaseURL overrides the client's base URL for this request.
func (r Request) BaseURL(baseURL string) Request {
	r.baseURL = baseURL
	return r
}

func (r Request) withBody(data []byte, enc BodyEncoding) Request {
	r.body = data
	r.encoding = enc
	return r.Header("Content-Type", enc.ContentType())
}

// Resolve turns the description into a WireRequest.
//
// The base URL set with BaseURL wins over defaultBaseURL. The request path is
// appended to the base path, so "https://api.example.com/v1" and "/users"
// resolve to "https://api.example.com/v1/users". Query items already present
// on the base URL are kept.
//
// An *InvalidURLError is returned when no absolute URL can be formed and an
// *EncodeError when the body failed to encode.
func (r Request) Resolve(defaultBaseURL string) (*WireRequest, error) {
	if r.err != nil {
		return nil, r.err
	}

	base := defaultBaseURL
	if r.baseURL != "" {
		base = r.baseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, &InvalidURLError{URL: base, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &InvalidURLError{URL: base, Err: errIncompleteBaseURL}
	}

	// The path is never read as a URL reference: "//users" is a path, not a host.
	unescaped, err := url.PathUnescape(r.path)
	if err != nil {
		return nil, &InvalidURLError{URL: base + r.path, Err: err}
	}
	ref := &url.URL{Path: unescaped, RawPath: r.path}

	escaped := joinPath(u.EscapedPath(), ref.EscapedPath())
	u.Path = joinPath(u.Path, ref.Path)
	u.RawPath = ""
	if escaped != u.EscapedPath() {
		u.RawPath = escaped
	}
	u.Fragment = ""

	if len(r.query) > 0 {
		q := u.Query()
		for _, k := range slices.Sorted(maps.Keys(r.query)) {
			for _, v := range formatQueryValue(r.query[k]) {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	header := r.header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	return &WireRequest{
		Method: string(r.method),
		URL:    u,
		Header: header,
		Body:   slices.Clone(r.body),
	}, nil
}

// splitPath normalizes the leading slash and extracts an embedded query string.
func splitPath(path string) (string, url.Values) {
	var query url.Values
	if i := strings.IndexByte(path, '?'); i >= 0 {
		// A malformed pair is dropped; the well-formed ones are kept.
		query, _ = url.ParseQuery(path[i+1:])
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, query
}

// joinPath appends path to basePath. A root path resolves to the base itself.
func joinPath(basePath, path string) string {
	switch {
	case basePath == "" || basePath == "/":
		return path
	case path == "/":
		return basePath
	default:
		return strings.TrimSuffix(basePath, "/") + path
	}
}

// formatQueryValue renders a query parameter value as one or more strings.
func formatQueryValue(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []string:
		return x
	case bool:
		return []string{strconv.FormatBool(x)}
	case float32:
		return []string{strconv.FormatFloat(float64(x), 'f', -1, 32)}
	case float64:
		return []string{strconv.FormatFloat(x, 'f', -1, 64)}
	case fmt.Stringer:
		return []string{x.String()}
	default:
		return []string{fmt.Sprint(x)}
	}
}
