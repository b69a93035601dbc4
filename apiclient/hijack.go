package apiclient

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Compile-time interface check.
var _ Hijacker = (*Registry)(nil)

// HijackResult is the outcome of a hijacked call: a substitute value or an error.
type HijackResult struct {
	Value any
	Err   error
}

// Hijacker can answer a call in place of the network.
//
// Hijack is given the endpoint's response type and request. It returns
// ok=false to let the call proceed. When ok is true, a non-nil Err fails the
// call and otherwise Value is delivered; Value must be assignable to t.
type Hijacker interface {
	Hijack(t reflect.Type, req Request) (HijackResult, bool)
}

type hijackKey struct {
	typ      reflect.Type
	criteria MatchCriteria
}

type hijackEntry struct {
	key     hijackKey
	resolve func(Request) (any, error)
}

// Registry is an in-memory Hijacker holding substitutes and synthetic errors
// keyed by response type and MatchCriteria.
//
// When several entries for the same type match a request, the most recently
// registered one wins. A Registry is safe for concurrent use.
//
//	registry := apiclient.NewRegistry()
//	apiclient.RegisterSubstitute(registry, []Post{{ID: 1}}, apiclient.Path(`^/posts$`))
//	apiclient.RegisterError[User](registry, "user service down", apiclient.Any())
type Registry struct {
	mu sync.RWMutex
	// byType holds entries in registration order, oldest first.
	byType map[reflect.Type][]*hijackEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type][]*hijackEntry)}
}

// RegisterSubstitute answers calls expecting T whose request matches
// criteria with value. It replaces an entry registered with the same type
// and criteria.
func RegisterSubstitute[T any](r *Registry, value T, criteria MatchCriteria) {
	r.register(reflect.TypeFor[T](), criteria, func(Request) (any, error) {
		return value, nil
	})
}

// RegisterError fails calls expecting T whose request matches criteria with
// a *MockedError carrying message. The network is never reached.
func RegisterError[T any](r *Registry, message string, criteria MatchCriteria) {
	r.register(reflect.TypeFor[T](), criteria, func(Request) (any, error) {
		return nil, &MockedError{Message: message}
	})
}

// RegisterFunc answers calls expecting T whose request matches criteria with
// the result of fn, which receives the request being hijacked.
//
//	apiclient.RegisterFunc(registry, apiclient.Path(`^/users/\d+$`),
//	    func(req apiclient.Request) (User, error) {
//	        return User{Name: path.Base(req.Path())}, nil
//	    })
func RegisterFunc[T any](r *Registry, criteria MatchCriteria, fn func(Request) (T, error)) {
	r.register(reflect.TypeFor[T](), criteria, func(req Request) (any, error) {
		v, err := fn(req)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

func (r *Registry) register(t reflect.Type, criteria MatchCriteria, resolve func(Request) (any, error)) {
	key := hijackKey{typ: t, criteria: criteria}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := slices.DeleteFunc(r.byType[t], func(e *hijackEntry) bool {
		return e.key == key
	})
	r.byType[t] = append(entries, &hijackEntry{key: key, resolve: resolve})
}

// Hijack implements Hijacker.
func (r *Registry) Hijack(t reflect.Type, req Request) (HijackResult, bool) {
	r.mu.RLock()
	var match *hijackEntry
	entries := r.byType[t]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].key.criteria.Matches(req) {
			match = entries[i]
			break
		}
	}
	r.mu.RUnlock()

	if match == nil {
		return HijackResult{}, false
	}

	v, err := match.resolve(req)
	return HijackResult{Value: v, Err: err}, true
}

// Lookup queries h for a value of type T. ok is false when no entry matched.
func Lookup[T any](h Hijacker, req Request) (value T, ok bool, err error) {
	res, ok := h.Hijack(reflect.TypeFor[T](), req)
	if !ok {
		return value, false, nil
	}
	value, err = hijackedValue[T](res)
	return value, true, err
}

// hijackedValue unpacks a hijack result for a call expecting T.
func hijackedValue[T any](res HijackResult) (T, error) {
	var zero T
	if res.Err != nil {
		return zero, res.Err
	}
	if res.Value == nil {
		return zero, nil
	}
	v, ok := res.Value.(T)
	if !ok {
		return zero, &DecodeError{
			Type: reflect.TypeFor[T](),
			Err:  fmt.Errorf("hijacked value has type %T", res.Value),
		}
	}
	return v, nil
}

// Clear removes every entry. Clearing an empty Registry is a no-op.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.byType)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, entries := range r.byType {
		n += len(entries)
	}
	return n
}
