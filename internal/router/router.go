package router

import (
	"strings"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
	"github.com/Brownie44l1/minihttp/internal/server"
)

// Route represents a single route
type Route struct {
	Method  request.Method
	Path    string
	Handler server.Handler
	Params  []string // Parameter names (e.g., ["id", "name"])
}

// Router handles HTTP routing
type Router struct {
	routes   []*Route
	notFound server.Handler
}

// New creates a new router
func New() *Router {
	return &Router{
		routes:   make([]*Route, 0),
		notFound: defaultNotFound,
	}
}

// Handle registers a new route. Patterns may contain :name segments and
// may end in a * or *name segment matching the rest of the path.
func (r *Router) Handle(method request.Method, path string, handler server.Handler) {
	r.routes = append(r.routes, &Route{
		Method:  method,
		Path:    path,
		Handler: handler,
		Params:  extractParams(path),
	})
}

// GET is a shortcut for Handle(request.MethodGet, ...)
func (r *Router) GET(path string, handler server.Handler) {
	r.Handle(request.MethodGet, path, handler)
}

// POST is a shortcut for Handle(request.MethodPost, ...)
func (r *Router) POST(path string, handler server.Handler) {
	r.Handle(request.MethodPost, path, handler)
}

// PUT is a shortcut for Handle(request.MethodPut, ...)
func (r *Router) PUT(path string, handler server.Handler) {
	r.Handle(request.MethodPut, path, handler)
}

// DELETE is a shortcut for Handle(request.MethodDelete, ...)
func (r *Router) DELETE(path string, handler server.Handler) {
	r.Handle(request.MethodDelete, path, handler)
}

// PATCH is a shortcut for Handle(request.MethodPatch, ...)
func (r *Router) PATCH(path string, handler server.Handler) {
	r.Handle(request.MethodPatch, path, handler)
}

// NotFound replaces the handler used when no route matches the path
func (r *Router) NotFound(handler server.Handler) {
	r.notFound = handler
}

// Match finds a route that matches the given method and path. The methods
// of routes matching only the path are returned when no route matches both.
func (r *Router) Match(method request.Method, path string) (*Route, map[string]string, []request.Method) {
	// Remove query string if present
	path, _, _ = strings.Cut(path, "?")

	var allowed []request.Method
	for _, route := range r.routes {
		params := matchPath(route.Path, path)
		if params == nil {
			continue
		}
		if route.Method != method {
			allowed = appendMethod(allowed, route.Method)
			continue
		}
		return route, params, nil
	}

	return nil, nil, allowed
}

// Handler returns the router as a server handler
func (r *Router) Handler() server.Handler {
	return r.Serve
}

// Serve dispatches req to the matching route
func (r *Router) Serve(req *request.Request) response.Response {
	route, params, allowed := r.Match(req.Method, req.Path)
	if route != nil {
		req.Params = params
		return route.Handler(req)
	}

	if len(allowed) > 0 {
		names := make([]string, len(allowed))
		for i, m := range allowed {
			names[i] = m.String()
		}
		return response.Error(response.StatusMethodNotAllowed, "").
			WithHeader("Allow", strings.Join(names, ", "))
	}

	return r.notFound(req)
}

func defaultNotFound(req *request.Request) response.Response {
	return response.Error(response.StatusNotFound, "")
}

func appendMethod(methods []request.Method, m request.Method) []request.Method {
	for _, existing := range methods {
		if existing == m {
			return methods
		}
	}
	return append(methods, m)
}

// extractParams extracts parameter names from a path pattern
// Example: "/users/:id/posts/:postId" -> ["id", "postId"]
func extractParams(path string) []string {
	parts := strings.Split(path, "/")
	params := make([]string, 0)

	for _, part := range parts {
		if name, ok := strings.CutPrefix(part, ":"); ok {
			params = append(params, name)
		} else if name, ok := strings.CutPrefix(part, "*"); ok {
			params = append(params, wildcardName(name))
		}
	}

	return params
}

func wildcardName(name string) string {
	if name == "" {
		return "*"
	}
	return name
}

// matchPath checks if a request path matches a route pattern
// Returns parameter values if match, nil otherwise
func matchPath(pattern, path string) map[string]string {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	params := make(map[string]string)

	for i, patternPart := range patternParts {
		// A trailing wildcard takes whatever is left, possibly nothing
		if name, ok := strings.CutPrefix(patternPart, "*"); ok && i == len(patternParts)-1 {
			rest := ""
			if i < len(pathParts) {
				rest = strings.Join(pathParts[i:], "/")
			}
			params[wildcardName(name)] = rest
			return params
		}

		if i >= len(pathParts) {
			return nil
		}
		pathPart := pathParts[i]

		if name, ok := strings.CutPrefix(patternPart, ":"); ok {
			if pathPart == "" {
				return nil
			}
			params[name] = pathPart
		} else if patternPart != pathPart {
			// Static parts must match exactly
			return nil
		}
	}

	// Must have same number of parts
	if len(patternParts) != len(pathParts) {
		return nil
	}

	return params
}
