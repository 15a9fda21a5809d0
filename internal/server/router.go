package server

import (
	"net/http"
	"strings"

	"github.com/justinas/alice"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Routes are dispatched by an [http.ServeMux]; middleware is composed with an [alice.Chain].
type BasicRouter struct {
	mux   *http.ServeMux
	chain alice.Chain
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:   http.NewServeMux(),
		chain: alice.New(),
	}
}

// Use appends [Middleware] to the chain. The first middleware added is the outermost one.
//
// Only handlers registered after the call are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.chain = r.chain.Append(alice.Constructor(m))
	}
}

// Handle registers a handler for the specified HTTP method and path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.Apply(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			w.Header().Set("Allow", strings.ToUpper(method))
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, req)
	}))

	r.mux.Handle(path, wrapped)
}

// HandleFunc registers a handler function for the specified HTTP method and path.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.Handle(method, path, fn)
}

// Handler registers every route returned by [Handler.Routes] for handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with the registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return r.chain.Then(handler)
}
