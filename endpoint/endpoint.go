// Package endpoint binds walker classes and plain functions to HTTP
// routes, directly modeled on the ancestor project's dsl package
// (Enabled/Endpoint/Create(func(){...}) builder style) translated from
// a declarative per-model DSL into a Go functional-options registration
// call: endpoint.Register(path, opts...). Wiring onto gin.Engine
// follows the same pattern teacher's router/router.go uses to mount
// controller.* handlers onto a gin.RouterGroup.
package endpoint

import (
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/forbearing/jvspatial/walker"
)

// RateLimit overrides the process default requests/window for one
// endpoint; the zero value means "use the configured default".
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Kind distinguishes a walker-backed endpoint from a plain function
// endpoint; both share the same registration/auth/rate-limit plumbing.
type Kind int

const (
	KindWalker Kind = iota
	KindFunc
)

// Handler is the plain-function endpoint signature; it receives the
// decoded request body (already validated) and writes its own
// response via the gin.Context, same as a walker-backed handler would
// after Drain.
type Handler func(c *gin.Context, body map[string]any) error

// Registration is what Register records for one path; RouteManager and
// the auth pipeline both read it back by path.
type Registration struct {
	Path    string
	Methods []string
	Kind    Kind

	WalkerNew func() walker.Walker
	WalkerTyp reflect.Type
	Func      Handler

	Auth        bool
	Roles       []string
	Permissions []string
	RateLimit   RateLimit

	Webhook         bool
	WebhookAuth     string // "", "query", "path" — how the API key is carried
	HMACSecret      string
	IdempotencyTTL  time.Duration
	AsyncProcessing bool

	Timeout time.Duration
	Tags    []string

	schema *Schema
}

// Option configures one Register call; each Option is a small closure
// over *Registration, the same shape teacher's dsl builder functions
// use but expressed as functional options instead of package-level DSL
// verbs, since Go has no bodyless-function-as-config-block idiom.
type Option func(*Registration)

func Methods(methods ...string) Option { return func(r *Registration) { r.Methods = methods } }

func Auth(roles, permissions []string) Option {
	return func(r *Registration) {
		r.Auth = true
		r.Roles = roles
		r.Permissions = permissions
	}
}

func RateLimited(requests int, window time.Duration) Option {
	return func(r *Registration) { r.RateLimit = RateLimit{Requests: requests, Window: window} }
}

func WebhookEndpoint(hmacSecret string, idempotencyTTL time.Duration, async bool) Option {
	return func(r *Registration) {
		r.Webhook = true
		r.HMACSecret = hmacSecret
		r.IdempotencyTTL = idempotencyTTL
		r.AsyncProcessing = async
	}
}

func WebhookAuthVia(mode string) Option { return func(r *Registration) { r.WebhookAuth = mode } }

func Tags(tags ...string) Option { return func(r *Registration) { r.Tags = tags } }

// WithTimeout declares reg's execution deadline; on expiry the same
// cancellation path context.Done() drives elsewhere runs, per spec.md
// §4.F/§5.
func WithTimeout(d time.Duration) Option { return func(r *Registration) { r.Timeout = d } }

// Walker binds T (a registered walker type) as the handler for path.
func Walker[T walker.Walker](opts ...Option) Option {
	return func(r *Registration) {
		r.Kind = KindWalker
		rt := reflect.TypeOf(*new(T))
		for rt.Kind() == reflect.Pointer {
			rt = rt.Elem()
		}
		r.WalkerTyp = rt
		r.WalkerNew = func() walker.Walker {
			return reflect.New(rt).Interface().(walker.Walker)
		}
		for _, o := range opts {
			o(r)
		}
	}
}

// Func binds a plain handler function as path's implementation.
func Func(fn Handler, opts ...Option) Option {
	return func(r *Registration) {
		r.Kind = KindFunc
		r.Func = fn
		for _, o := range opts {
			o(r)
		}
	}
}

var (
	mu       sync.RWMutex
	registry = map[string]*Registration{} // key: method+" "+path
)

// ErrDuplicateRegistration is returned by Register (wrapped with the
// method and path) when the same path+method is registered twice.
var ErrDuplicateRegistration = errors.New("endpoint: duplicate path+method registration")

// Register declares path with opts applied in order, synthesizing its
// request schema (for walker-backed endpoints) and publishing it into
// the process-wide registry. Register must be called only during
// startup, before Mount runs — per spec.md §5's "mutated only at
// startup and explicit runtime registration calls; reads are lock-free
// after publication" the registry itself has no read-side locking
// requirement once Mount has published routes onto gin.Engine.
func Register(path string, opts ...Option) error {
	r := &Registration{Path: path, Methods: []string{http.MethodGet}}
	for _, o := range opts {
		o(r)
	}
	if len(r.Methods) == 0 {
		r.Methods = []string{http.MethodGet}
	}
	if r.Kind == KindWalker && r.WalkerTyp != nil {
		r.schema = synthesizeSchema(r.WalkerTyp)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, m := range r.Methods {
		key := m + " " + path
		if _, exists := registry[key]; exists {
			return errors.Wrapf(ErrDuplicateRegistration, "%s %s", m, path)
		}
		registry[key] = r
	}
	return nil
}

// Lookup resolves the registration for method+path, or (nil, false) if
// unregistered — the dispatcher's auth pipeline treats unregistered
// paths as requiring credentials regardless of the result.
func Lookup(method, path string) (*Registration, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := registry[method+" "+path]
	return r, ok
}

// All returns every registration, for building the route tree and any
// introspective docs endpoint.
func All() []*Registration {
	mu.RLock()
	defer mu.RUnlock()
	seen := map[*Registration]bool{}
	out := make([]*Registration, 0, len(registry))
	for _, r := range registry {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Reset clears the registry; used by tests that need an isolated
// instance per spec.md §5's "tests must be able to build an isolated
// instance" requirement for the endpoint registry.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]*Registration{}
}
