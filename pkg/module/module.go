// Package module mounts prefixed HTTP sub-applications, each with its own
// middleware stack, onto a shared router.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hcortiz/cotejo/pkg/middleware"
)

// Module is an HTTP handler mounted at a single-level path prefix. Requests
// are dispatched to the inner router with the prefix stripped.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New creates a Module with the given prefix (e.g. "/api"). Panics on an
// empty, slash-less, or multi-level prefix; mounting is a wiring error, not
// a runtime condition.
func New(prefix string, router http.Handler) *Module {
	if prefix == "" || !strings.HasPrefix(prefix, "/") || strings.Count(prefix, "/") != 1 {
		panic(fmt.Sprintf("invalid module prefix: %q", prefix))
	}

	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Use adds middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Serve strips the module prefix from the request path and dispatches to the
// inner router through the middleware stack.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	stripped := req.URL.Path[len(m.prefix):]
	if stripped == "" {
		stripped = "/"
	}

	r := new(http.Request)
	*r = *req
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = stripped
	r.URL.RawPath = ""

	m.middleware.Apply(m.router).ServeHTTP(w, r)
}

// Router dispatches requests to mounted modules by path prefix, falling back
// to a native ServeMux for unmatched paths (health probes, version info).
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with an empty module map.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Mount registers a module under its prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimSuffix(req.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	req.URL.Path = path

	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		if m, ok := r.modules["/"+parts[1]]; ok {
			m.Serve(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}
