package apiclient

import "net/http"

// Method is an HTTP verb supported by Request.
type Method string

// Supported HTTP methods.
const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Location is where request parameters are placed.
type Location int

const (
	// LocationQuery places parameters in the URL query string.
	LocationQuery Location = iota
	// LocationBody places parameters in the request body.
	LocationBody
)

func (l Location) String() string {
	if l == LocationQuery {
		return "query"
	}
	return "body"
}

// BodyEncoding is the serialization used for a request body.
type BodyEncoding int

const (
	// EncodingJSON serializes the body as JSON.
	EncodingJSON BodyEncoding = iota
	// EncodingForm serializes the body as application/x-www-form-urlencoded.
	EncodingForm
)

// ContentType returns the MIME type sent in the Content-Type header for the encoding.
func (e BodyEncoding) ContentType() string {
	switch e {
	case EncodingForm:
		return "application/x-www-form-urlencoded; charset=utf-8"
	default:
		return "application/json; charset=UTF-8"
	}
}

func (e BodyEncoding) String() string {
	if e == EncodingForm {
		return "form"
	}
	return "json"
}

// ParameterEncoding decides where Request.Params places parameters and how a
// body built from them is serialized.
//
// A nil Location means the placement depends on the method (see DefaultLocation).
type ParameterEncoding struct {
	Location *Location
	Body     BodyEncoding
}

// MethodDependent places parameters by method and encodes bodies as JSON.
var MethodDependent = ParameterEncoding{Body: EncodingJSON}

// PreferredBodyEncoding returns a method dependent policy using enc for bodies.
func PreferredBodyEncoding(enc BodyEncoding) ParameterEncoding {
	return ParameterEncoding{Body: enc}
}

// In returns a copy of the policy that always places parameters at loc.
func (pe ParameterEncoding) In(loc Location) ParameterEncoding {
	pe.Location = &loc
	return pe
}

// DefaultLocation maps a method to its default parameter placement:
// GET uses the query string, every other method uses the body.
func DefaultLocation(m Method) Location {
	if m == MethodGet {
		return LocationQuery
	}
	return LocationBody
}

// LocationFor returns the explicit location if one was set, else DefaultLocation(m).
func (pe ParameterEncoding) LocationFor(m Method) Location {
	if pe.Location != nil {
		return *pe.Location
	}
	return DefaultLocation(m)
}
