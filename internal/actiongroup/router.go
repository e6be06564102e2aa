package actiongroup

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// HandlerFunc serves one action. The returned body is JSON-encoded into the
// response unless it is already a string.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

type route struct {
	method   string
	segments []string
	code     string
	handler  HandlerFunc
}

// Router maps (HTTP verb, API path template) pairs to handlers. Templates
// use {name} segments for path parameters.
type Router struct {
	routes []route
	logger *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger}
}

// Handle registers handler for method and path. code is the error code used
// when the handler fails without naming one.
func (r *Router) Handle(method, path, code string, handler HandlerFunc) {
	if code == "" {
		code = CodeActionGroup
	}
	r.routes = append(r.routes, route{
		method:   strings.ToUpper(method),
		segments: splitPath(path),
		code:     code,
		handler:  handler,
	})
}

// Routes lists registered routes as "VERB /path".
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.method+" /"+strings.Join(rt.segments, "/"))
	}
	return out
}

// Dispatch resolves ev to a handler and wraps its result in the action-group
// envelope. It never returns a Go error: failures become error envelopes.
func (r *Router) Dispatch(ctx context.Context, ev *Event) (resp Response) {
	method := strings.ToUpper(ev.HTTPMethod)
	rt, params, ok := r.match(method, ev.APIPath)
	if !ok {
		r.logger.Warn("unknown action", "action_group", ev.ActionGroup, "method", method, "path", ev.APIPath)
		resp, _ = okResponse(ev, http.StatusNotFound, map[string]string{"message": "Not found"})
		return resp
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("action handler panicked", "method", method, "path", ev.APIPath, "panic", rec)
			resp = errorResponse(rt.code, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	r.logger.Debug("handling action", "action_group", ev.ActionGroup, "method", method, "path", ev.APIPath)
	body, err := rt.handler(ctx, newRequest(ev, params))
	if err != nil {
		r.logger.Error("action failed", "action_group", ev.ActionGroup, "method", method, "path", ev.APIPath, "error", err)
		return errorResponse(codeOf(err, rt.code), err.Error())
	}

	resp, err = okResponse(ev, http.StatusOK, body)
	if err != nil {
		return errorResponse(rt.code, err.Error())
	}
	return resp
}

func (r *Router) match(method, path string) (route, map[string]string, bool) {
	segs := splitPath(path)
	for _, rt := range r.routes {
		if rt.method != method || len(rt.segments) != len(segs) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, s := range rt.segments {
			if isTemplate(s) {
				// Agents send the template itself as apiPath and the value in
				// parameters[]; only a concrete segment is a path parameter.
				if !isTemplate(segs[i]) {
					params[s[1:len(s)-1]] = segs[i]
				}
				continue
			}
			if s != segs[i] {
				matched = false
				break
			}
		}
		if matched {
			return rt, params, true
		}
	}
	return route{}, nil, false
}

func isTemplate(seg string) bool {
	return len(seg) > 2 && strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
