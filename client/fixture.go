// Package client fakes a generated service SDK client. A Fixture holds the
// configured responses and the call ledger; sessions created from it hand out
// clients whose method calls are validated against the service
// specification, answered from the fixture and cast into the declared output
// types.
//
//	fx := client.New(data, client.WithLoader(loader))
//	sts, _ := fx.NewSession(client.SessionOptions{}).Client("sts", client.ClientOptions{})
//	out, err := sts.Call("get_caller_identity", nil, nil)
package client

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/fio"
	"github.com/Paranoid-AF/hollow/shape"
	"github.com/Paranoid-AF/hollow/spec"
	"github.com/Paranoid-AF/hollow/store"
)

// Caller answers method calls by name. *Client implements it, and any other
// fake can be installed in its place with AddClientOverride.
type Caller interface {
	Call(method string, args []any, kwargs map[string]any) (any, error)
}

// Option configures a Fixture.
type Option func(*Fixture)

// WithLoader sets the source of service specifications. Pass a *spec.Cache
// to share parsed specifications between fixtures.
func WithLoader(l spec.Loader) Option {
	return func(f *Fixture) { f.loader = l }
}

// WithClientOverride installs c in place of the fixture client for service.
func WithClientOverride(service string, c Caller) Option {
	return func(f *Fixture) { f.overrides[service] = c }
}

// Fixture owns the response table, the call ledger and the client overrides
// of one test. It is not safe for concurrent use.
type Fixture struct {
	store     *store.Store
	loader    spec.Loader
	overrides map[string]Caller
}

// New returns a fixture answering calls from data, which is used and
// modified in place. Without WithLoader, specifications are read from the
// directory named by HOLLOW_SPEC_DIR or the tool configuration.
func New(data map[string]any, opts ...Option) *Fixture {
	f := &Fixture{
		store:     store.New(data),
		overrides: map[string]Caller{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromFile reads fixture data from a YAML, TOML or JSON file. The prefix
// selects the nested section holding the data; format overrides detection by
// extension.
func FromFile(path string, prefix []string, format string, opts ...Option) (*Fixture, error) {
	data, err := fio.Read(path, prefix, format)
	if err != nil {
		return nil, err
	}
	return New(data, opts...), nil
}

// Data returns the fixture data, including any responses added since
// construction.
func (f *Fixture) Data() map[string]any {
	return f.store.Data()
}

// AddCall configures a response for service.method following the same merge
// rule as the CLI: a second response turns the first into a queue. A nil
// response adds the skeleton of the method's output.
func (f *Fixture) AddCall(service, method string, response any) error {
	g, err := f.graph(service)
	if err != nil {
		return err
	}
	m, ok := g.Method(method)
	if !ok {
		return noSuchMethod(g, method)
	}
	f.store.Configure(service, method, m.Output(), response)
	return nil
}

// ServiceCalls returns every call made through the fixture's clients.
func (f *Fixture) ServiceCalls() []hollow.ServiceCall {
	return f.store.Calls()
}

// ServiceCallsFor returns the calls made to one method.
func (f *Fixture) ServiceCallsFor(service, method string) []hollow.ServiceCall {
	return f.store.CallsFor(service, method)
}

// ServiceCall returns the index-th call made to one method.
func (f *Fixture) ServiceCall(service, method string, index int) (hollow.ServiceCall, error) {
	return f.store.CallAt(service, method, index)
}

// AddClientOverride makes sessions return c for service instead of a
// fixture client.
func (f *Fixture) AddClientOverride(service string, c Caller) *Fixture {
	f.overrides[service] = c
	return f
}

// RemoveClientOverride drops the override for service, if there is one.
func (f *Fixture) RemoveClientOverride(service string) *Fixture {
	delete(f.overrides, service)
	return f
}

// Factory returns NewSession as a Factory, for Install and With.
func (f *Fixture) Factory() Factory {
	return f.NewSession
}

func (f *Fixture) graph(service string) (*shape.Graph, error) {
	if f.loader == nil {
		l, err := DefaultLoader()
		if err != nil {
			return nil, err
		}
		f.loader = l
	}
	return f.loader.Load(service)
}

// DefaultLoader builds a caching loader from the tool configuration. A
// fixture created without WithLoader builds one on first use and keeps it, so
// each service is read once per fixture. Pass the result to WithLoader to
// share it between fixtures.
func DefaultLoader() (*spec.Cache, error) {
	cfg, err := hollow.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, w := range hollow.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	dir := hollow.ResolveSpecDir(cfg)
	if dir == "" {
		return nil, &hollow.ConfigError{Path: hollow.ConfigPath(), Err: errors.New("no service specification directory configured; set HOLLOW_SPEC_DIR or specs.dir")}
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, rest)
		}
	}

	l := spec.NewDirLoader(dir)
	l.Augment = hollow.AugmentationsEnabled(cfg)
	l.Depth = hollow.ResolveDepth(cfg)
	return spec.NewCache(l, 0), nil
}
