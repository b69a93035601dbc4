package apiclient

import (
	"context"
	"errors"
	"reflect"
	"time"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// DefaultTimeLayout is the date layout used by Decoder unless configured otherwise:
// ISO-8601 with milliseconds and a zone, e.g. "2021-03-12T10:04:05.000+0000".
// UTC may also be written as "Z".
const DefaultTimeLayout = "2006-01-02T15:04:05.000Z0700"

var (
	errNotAnObject = errors.New("payload root is not a JSON object")
	errPathMissing = errors.New("path not found in payload")
)

type timeLayoutKey struct{}

// Time is a time.Time that decodes with the layout of the Decoder in use.
//
// Fields of this type honour WithTimeLayout; plain time.Time fields keep the
// RFC 3339 behaviour of the JSON codec.
type Time struct {
	time.Time
}

// UnmarshalJSON implements the context-aware unmarshaler of goccy/go-json.
func (t *Time) UnmarshalJSON(ctx context.Context, data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	layout := DefaultTimeLayout
	if ctx != nil {
		if l, ok := ctx.Value(timeLayoutKey{}).(string); ok && l != "" {
			layout = l
		}
	}

	parsed, err := time.Parse(layout, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// MarshalJSON encodes the time with DefaultTimeLayout. UTC is written as "Z".
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(DefaultTimeLayout))
}

// Decoder decodes JSON payloads into response values.
type Decoder struct {
	timeLayout string
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithTimeLayout sets the layout used for Time fields.
//
//	apiclient.JSON[Event](req, apiclient.WithTimeLayout(time.RFC1123))
func WithTimeLayout(layout string) DecoderOption {
	return func(d *Decoder) {
		d.timeLayout = layout
	}
}

// NewDecoder creates a Decoder using DefaultTimeLayout unless overridden.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{timeLayout: DefaultTimeLayout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode unmarshals data into v.
func (d *Decoder) Decode(data []byte, v any) error {
	ctx := context.WithValue(context.Background(), timeLayoutKey{}, d.timeLayout)
	return json.UnmarshalContext(ctx, data, v)
}

// decodeJSON decodes data into a new T, wrapping failures in a *DecodeError.
func decodeJSON[T any](d *Decoder, data []byte) (T, error) {
	var v T
	if err := d.Decode(data, &v); err != nil {
		return v, &DecodeError{Type: reflect.TypeFor[T](), Err: err}
	}
	return v, nil
}

// decodeJSONAt selects the sub-document at path before decoding it.
func decodeJSONAt[T any](d *Decoder, data []byte, path string) (T, error) {
	var zero T
	if !gjson.ValidBytes(data) {
		return zero, &DecodeError{Type: reflect.TypeFor[T](), Err: errors.New("invalid JSON payload")}
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return zero, &DecodeError{Type: reflect.TypeFor[T](), Err: errPathMissing}
	}
	return decodeJSON[T](d, []byte(res.Raw))
}

// decodeDictionary decodes a JSON object into a generic map.
func decodeDictionary(data []byte) (map[string]any, error) {
	typ := reflect.TypeFor[map[string]any]()

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &DecodeError{Type: typ, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Type: typ, Err: errNotAnObject}
	}
	return obj, nil
}
