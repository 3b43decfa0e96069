package client

import (
	"fmt"
	"log/slog"
)

// Default credentials reported when the fixture data sets none.
const (
	DefaultAccessKey = "A123HOLLOW"
	DefaultSecretKey = "hollowsecretkey"
	DefaultMethod    = "manual"
)

// SessionOptions mirrors the arguments of an SDK session constructor. Set
// fields take precedence over the fixture's session data.
type SessionOptions struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	RegionName      string
	ProfileName     string
}

// Credentials is the credential set a session reports.
type Credentials struct {
	AccessKey string
	SecretKey string
	Token     string
	// Method names how the credentials were obtained.
	Method string
}

// Factory creates sessions. Code under test declares a package-level Factory
// and calls it where it would construct an SDK session; tests swap it for a
// fixture's with Install, With or InstallT.
type Factory func(opts SessionOptions) *Session

// Session hands out one client per service.
type Session struct {
	fixture *Fixture
	opts    SessionOptions
	data    map[string]any
	clients map[string]*Client
}

// NewSession starts a session. When the fixture data holds a list of
// sessions, each new session consumes the next entry.
func (f *Fixture) NewSession(opts SessionOptions) *Session {
	return &Session{
		fixture: f,
		opts:    opts,
		data:    f.store.SessionData(),
		clients: map[string]*Client{},
	}
}

// RegionName returns the session's region, or "" when none is set.
func (s *Session) RegionName() string {
	if s.opts.RegionName != "" {
		return s.opts.RegionName
	}
	return stringKey(s.data, "region_name")
}

// ProfileName returns the session's profile, or "" when none is set.
func (s *Session) ProfileName() string {
	if s.opts.ProfileName != "" {
		return s.opts.ProfileName
	}
	return stringKey(s.data, "profile_name")
}

// AvailableProfiles returns the profiles listed in the session data.
func (s *Session) AvailableProfiles() []string {
	raw, _ := s.data["available_profiles"].([]any)
	profiles := make([]string, 0, len(raw))
	for _, p := range raw {
		profiles = append(profiles, fmt.Sprint(p))
	}
	return profiles
}

// Credentials returns the session credentials. Keys passed to the session
// constructor win over the session data's credentials section.
func (s *Session) Credentials() Credentials {
	data, _ := s.data["credentials"].(map[string]any)
	c := Credentials{
		AccessKey: or(stringKey(data, "access_key"), DefaultAccessKey),
		SecretKey: or(stringKey(data, "secret_key"), DefaultSecretKey),
		Token:     stringKey(data, "token"),
		Method:    or(stringKey(data, "method"), DefaultMethod),
	}
	if s.opts.AccessKeyID != "" {
		c.AccessKey = s.opts.AccessKeyID
	}
	if s.opts.SecretAccessKey != "" {
		c.SecretKey = s.opts.SecretAccessKey
	}
	if s.opts.SessionToken != "" {
		c.Token = s.opts.SessionToken
	}
	return c
}

// Client returns the client for service. Overrides registered on the
// fixture are returned as is; otherwise the first call creates a *Client
// and later calls return that same client, ignoring opts.
func (s *Session) Client(service string, opts ClientOptions) (Caller, error) {
	if override, ok := s.fixture.overrides[service]; ok {
		return override, nil
	}
	if c, ok := s.clients[service]; ok {
		return c, nil
	}

	g, err := s.fixture.graph(service)
	if err != nil {
		return nil, err
	}
	c := newClient(s, g, opts)
	s.clients[service] = c
	slog.Debug("created client", "service", service, "version", g.Version)
	return c, nil
}

// Install replaces *target with the fixture's factory and returns a function
// restoring the previous value.
func Install(target *Factory, fx *Fixture) (restore func()) {
	previous := *target
	*target = fx.Factory()
	return func() { *target = previous }
}

// With runs fn with the fixture installed in *target. The previous factory
// is restored when fn returns or panics.
func With(target *Factory, fx *Fixture, fn func()) {
	restore := Install(target, fx)
	defer restore()
	fn()
}

// TB is the part of testing.TB that InstallT uses.
type TB interface {
	Helper()
	Cleanup(func())
}

// InstallT installs the fixture for the duration of a test.
func InstallT(t TB, target *Factory, fx *Fixture) {
	t.Helper()
	t.Cleanup(Install(target, fx))
}

func stringKey(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
