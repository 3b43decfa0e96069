// Package store holds a fixture's configured responses and the ledger of
// calls made against it.
//
// Responses live in a plain nested map so that they can be persisted as
// they were read:
//
//	clients:
//	  <service>:
//	    <method>: <response>
//	session: {...}        # or sessions: [{...}, ...]
//
// A response is a plain value, which is returned on every call, a queue
// ([]any), whose entries are handed out one per call in order, or a
// ResponseFunc computed per call. A Store is not safe for concurrent use.
package store

import (
	"log/slog"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/shape"
)

// Top-level keys of the fixture data.
const (
	ClientsKey  = "clients"
	SessionKey  = "session"
	SessionsKey = "sessions"
)

// ResponseFunc computes a response from the arguments of the call.
type ResponseFunc func(args []any, kwargs map[string]any) (any, error)

// Store is the response table and call ledger of one fixture.
type Store struct {
	data  map[string]any
	calls []hollow.ServiceCall
}

// New wraps data, which is used and modified in place.
func New(data map[string]any) *Store {
	if data == nil {
		data = map[string]any{}
	}
	return &Store{data: data}
}

// Data returns the backing map, e.g. for writing it back to a file.
func (s *Store) Data() map[string]any {
	return s.data
}

// Configure adds a response for service.method. The first response is
// stored as is, or as a one-element queue when the method's output is itself
// a list. Adding to a plain value turns it into a two-element queue, and
// adding to a queue appends. A nil response stores the skeleton of output.
func (s *Store) Configure(service, method string, output *shape.Shape, response any) {
	if response == nil {
		response = shape.Skeleton(output)
	}

	methods := childMap(childMap(s.data, ClientsKey), service)
	key := matchKey(methods, method)

	existing, ok := methods[key]
	switch {
	case !ok:
		if output.TypeName() == shape.TypeList {
			methods[key] = []any{response}
		} else {
			methods[key] = response
		}
	default:
		if queue, isQueue := existing.([]any); isQueue {
			methods[key] = append(queue, response)
		} else {
			methods[key] = []any{existing, response}
		}
	}
	slog.Debug("configured response", "service", service, "method", key)
}

// Take returns the response for a call. Queued entries are consumed; plain
// values and functions are not. A ResponseFunc is invoked with the call's
// arguments and its result returned.
func (s *Store) Take(service, method string, args []any, kwargs map[string]any) (any, error) {
	methods, _ := clients(s.data)[service].(map[string]any)
	key := matchKey(methods, method)

	response, ok := methods[key]
	if !ok || response == nil {
		return nil, &hollow.NoResponseFoundError{Service: service, Method: method}
	}

	if queue, isQueue := response.([]any); isQueue {
		if len(queue) == 0 {
			return nil, &hollow.NoResponseFoundError{Service: service, Method: method, Exhausted: true}
		}
		response = queue[0]
		methods[key] = queue[1:]
	}

	switch fn := response.(type) {
	case ResponseFunc:
		return fn(args, kwargs)
	case func(args []any, kwargs map[string]any) (any, error):
		return fn(args, kwargs)
	}
	return response, nil
}

// Record appends a call to the ledger.
func (s *Store) Record(call hollow.ServiceCall) {
	s.calls = append(s.calls, call)
}

// Calls returns every recorded call in the order made.
func (s *Store) Calls() []hollow.ServiceCall {
	return append([]hollow.ServiceCall(nil), s.calls...)
}

// CallsFor returns the recorded calls of one method. Method names match in
// any casing, so "GetObject" and "get_object" select the same calls.
func (s *Store) CallsFor(service, method string) []hollow.ServiceCall {
	want := shape.OperationKey(method)
	var out []hollow.ServiceCall
	for _, c := range s.calls {
		if c.Service == service && shape.OperationKey(c.Method) == want {
			out = append(out, c)
		}
	}
	return out
}

// CallAt returns the index-th call of one method. Negative indexes count
// from the end.
func (s *Store) CallAt(service, method string, index int) (hollow.ServiceCall, error) {
	calls := s.CallsFor(service, method)
	i := index
	if i < 0 {
		i += len(calls)
	}
	if i < 0 || i >= len(calls) {
		return hollow.ServiceCall{}, &hollow.IndexError{Service: service, Method: method, Index: index, Len: len(calls)}
	}
	return calls[i], nil
}

// SessionData returns the session section. When it holds a list, each call
// consumes the first entry, so consecutive sessions see consecutive entries.
func (s *Store) SessionData() map[string]any {
	key := SessionKey
	raw, ok := s.data[key]
	if !ok || raw == nil {
		key = SessionsKey
		raw = s.data[key]
	}

	switch v := raw.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) == 0 {
			return map[string]any{}
		}
		s.data[key] = v[1:]
		if m, ok := v[0].(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

func clients(data map[string]any) map[string]any {
	m, _ := data[ClientsKey].(map[string]any)
	return m
}

// childMap returns parent[key], creating an empty map when absent.
func childMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

// matchKey returns the key in methods naming method in any casing, or
// method itself when there is none.
func matchKey(methods map[string]any, method string) string {
	if _, ok := methods[method]; ok {
		return method
	}
	want := shape.OperationKey(method)
	for k := range methods {
		if shape.OperationKey(k) == want {
			return k
		}
	}
	return method
}
