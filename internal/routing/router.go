package routing

import (
	"net/http"

	"go.uber.org/zap"
)

// Router dispatches by (method, path) against bound handlers and enforces the
// allowlist classification before a handler runs.
type Router struct {
	classifier *Classifier
	logger     *zap.Logger
	exact      map[routeKey]http.Handler
	patterns   []patternHandler
	allowedRC  map[RouteClass]bool
}

type routeKey struct {
	method string
	path   string
}

type patternHandler struct {
	method  string
	pattern PathPattern
	handler http.Handler
}

func NewRouter(classifier *Classifier, logger *zap.Logger, serve ...RouteClass) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[RouteClass]bool, len(serve))
	for _, rc := range serve {
		allowed[rc] = true
	}
	return &Router{
		classifier: classifier,
		logger:     logger,
		exact:      make(map[routeKey]http.Handler),
		allowedRC:  allowed,
	}
}

func (rt *Router) Handle(method string, path string, handler http.Handler) {
	if p, ok := parsePathPattern(path); ok {
		rt.patterns = append(rt.patterns, patternHandler{method: method, pattern: p, handler: handler})
		return
	}
	rt.exact[routeKey{method: method, path: path}] = handler
}

func (rt *Router) HandleFunc(method string, path string, handler http.HandlerFunc) {
	rt.Handle(method, path, handler)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.logger.Error("handler panic",
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
			)
			WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		}
	}()

	rc := rt.classifier.Classify(r.URL.Path)
	if len(rt.allowedRC) > 0 && !rt.allowedRC[rc] {
		WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not served by this entrypoint")
		return
	}

	handler, methodKnown := rt.match(r.Method, r.URL.Path)
	if handler == nil {
		if methodKnown {
			WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		WriteError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	handler.ServeHTTP(w, r)
}

// match returns the bound handler, and whether the path exists under any
// method (used to distinguish 404 from 405).
func (rt *Router) match(method string, path string) (http.Handler, bool) {
	if h, ok := rt.exact[routeKey{method: method, path: path}]; ok {
		return h, true
	}
	pathKnown := false
	for key := range rt.exact {
		if key.path == path {
			pathKnown = true
			break
		}
	}
	for _, ph := range rt.patterns {
		if !ph.pattern.Match(path) {
			continue
		}
		if ph.method == method {
			return ph.handler, true
		}
		pathKnown = true
	}
	return nil, pathKnown
}
