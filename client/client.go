package client

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/cast"
	"github.com/Paranoid-AF/hollow/index"
	"github.com/Paranoid-AF/hollow/request"
	"github.com/Paranoid-AF/hollow/shape"
	"github.com/google/uuid"
)

// maxSuggestions bounds the "did you mean" list of a NoSuchMethodError.
const maxSuggestions = 3

// DefaultExpiresIn is the lifetime of presigned URLs when none is given.
const DefaultExpiresIn = 3600

// now is swapped in tests.
var now = time.Now

// ClientOptions mirrors the arguments of an SDK client constructor. They
// only feed GeneratePresignedURL.
type ClientOptions struct {
	RegionName      string
	APIVersion      string
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Client answers calls for one service from its session's fixture.
type Client struct {
	service string
	session *Session
	graph   *shape.Graph
	opts    ClientOptions
	calls   []hollow.ServiceCall
}

func newClient(s *Session, g *shape.Graph, opts ClientOptions) *Client {
	return &Client{service: g.Service, session: s, graph: g, opts: opts}
}

// Service returns the service name the client was created for.
func (c *Client) Service() string {
	return c.service
}

// Lookup returns the specification of method in any casing.
func (c *Client) Lookup(method string) (*shape.Method, bool) {
	return c.graph.Method(method)
}

// Call invokes method. Arguments are checked against the input shape before
// a response is taken, so a rejected call leaves the fixture untouched. The
// response is cast into the output shape and recorded. A response holding an
// "Error" entry is recorded too, then returned as a *hollow.Fault.
func (c *Client) Call(method string, args []any, kwargs map[string]any) (any, error) {
	m, ok := c.Lookup(method)
	if !ok {
		return nil, noSuchMethod(c.graph, method)
	}

	req, err := request.Validate(m.Input(), args, kwargs)
	if err != nil {
		var invalid *hollow.RequestValidationError
		if errors.As(err, &invalid) {
			invalid.Service = c.service
			invalid.Method = method
		}
		return nil, err
	}

	fx := c.session.fixture
	raw, err := fx.store.Take(c.service, method, args, kwargs)
	if err != nil {
		return nil, err
	}
	response, err := cast.Cast(m.Output(), raw)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.service, method, err)
	}

	call := hollow.ServiceCall{
		ID:       uuid.NewString(),
		Service:  c.service,
		Method:   method,
		Request:  req,
		Args:     args,
		Kwargs:   kwargs,
		Response: response,
	}
	fx.store.Record(call)
	c.calls = append(c.calls, call)
	slog.Debug("call", "service", c.service, "method", method, "id", call.ID, "request", Redact(req))

	if fault := hollow.FaultFromResponse(response); fault != nil {
		fault.Service = c.service
		fault.Method = m.Operation.Name
		_, fault.Modeled = c.graph.Exceptions[fault.Code]
		return nil, fault
	}
	return response, nil
}

// Calls returns the calls made through this client.
func (c *Client) Calls() []hollow.ServiceCall {
	return append([]hollow.ServiceCall(nil), c.calls...)
}

// Exceptions returns the exception names the service declares, sorted.
// Faults with one of these codes have Modeled set.
func (c *Client) Exceptions() []string {
	names := make([]string, 0, len(c.graph.Exceptions))
	for name := range c.graph.Exceptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paginator returns a paginator for method.
func (c *Client) Paginator(method string) (*Paginator, error) {
	if _, ok := c.Lookup(method); !ok {
		return nil, noSuchMethod(c.graph, method)
	}
	return &Paginator{client: c, method: method}, nil
}

// Paginator yields a method's responses page by page.
type Paginator struct {
	client *Client
	method string
}

// Paginate makes one call and returns its response as the only page.
func (p *Paginator) Paginate(args []any, kwargs map[string]any) ([]any, error) {
	page, err := p.client.Call(p.method, args, kwargs)
	if err != nil {
		return nil, err
	}
	return []any{page}, nil
}

// GeneratePresignedURL returns a syntactically valid but unsigned URL for
// method. params are validated like call arguments. An expiresIn of zero
// or less uses DefaultExpiresIn.
func (c *Client) GeneratePresignedURL(method string, params map[string]any, expiresIn int) (string, error) {
	m, ok := c.Lookup(method)
	if !ok {
		return "", noSuchMethod(c.graph, method)
	}
	if _, err := request.Validate(m.Input(), nil, params); err != nil {
		var invalid *hollow.RequestValidationError
		if errors.As(err, &invalid) {
			invalid.Service = c.service
			invalid.Method = method
		}
		return "", err
	}
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}

	version := c.opts.APIVersion
	if version == "" {
		version, _ = c.graph.Metadata["apiVersion"].(string)
	}
	access := or(c.opts.AccessKeyID, c.session.Credentials().AccessKey)
	region := or(or(c.opts.RegionName, c.session.RegionName()), "us-east-1")
	endpoint := or(c.opts.EndpointURL, "https://"+c.service+".amazonaws.com")

	t := now().UTC()
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(endpoint, "/") + "/")
	fmt.Fprintf(&b, "?Action=%s", m.Operation.Name)
	fmt.Fprintf(&b, "&Version=%s", version)
	b.WriteString("&X-Amz-Algorithm=AWS4-HMAC-SHA256")
	fmt.Fprintf(&b, "&X-Amz-Credential=%s%%2F%s%%2F%s%%2F%s%%2Faws4_request", access, t.Format("20060102"), region, c.service)
	fmt.Fprintf(&b, "&X-Amz-Date=%s", t.Format("20060102T150405Z"))
	fmt.Fprintf(&b, "&X-Amz-Expires=%d", expiresIn)
	b.WriteString("&X-Amz-SignedHeaders=host")
	b.WriteString("&X-Amz-Security-Token=HollowFakeToken")
	b.WriteString("&X-Amz-Signature=hollowfakesignature")
	return b.String(), nil
}

func noSuchMethod(g *shape.Graph, method string) *hollow.NoSuchMethodError {
	names := index.NewNames(g.OperationNames()...)
	var suggestions []string
	for _, name := range names.Suggest(method, maxSuggestions) {
		suggestions = append(suggestions, SnakeCase(name))
	}
	return &hollow.NoSuchMethodError{Service: g.Service, Method: method, Suggestions: suggestions}
}

// SnakeCase converts an operation name to the method name clients are
// called with: "ListObjectsV2" becomes "list_objects_v2".
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
