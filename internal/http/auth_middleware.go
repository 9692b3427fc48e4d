package httpx

import (
	"context"
	"net/http"
	"strings"
)

type authContextKey string

type authInfo struct {
	UserID string
	Email  string
	Token  string
}

const contextKeyAuth authContextKey = "driftbox-auth-info"

// tokenHeader carries session tokens on every authenticated call. Login
// credentials travel on the Basic Authorization header instead.
const tokenHeader = "X-Token"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth ensures the request carries a valid session token before
// invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth resolves the session token and enriches the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, authInfo, bool) {
	token := strings.TrimSpace(req.Header.Get(tokenHeader))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return req.Context(), authInfo{}, false
	}
	user, err := r.auth.Resolve(req.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return req.Context(), authInfo{}, false
	}
	info := authInfo{UserID: user.ID, Email: user.Email, Token: token}
	ctx := context.WithValue(req.Context(), contextKeyAuth, info)
	return ctx, info, true
}

// callerID resolves the session token when present; anonymous callers get an
// empty id. Used on paths where public files remain reachable.
func (r *Router) callerID(req *http.Request) string {
	token := strings.TrimSpace(req.Header.Get(tokenHeader))
	if token == "" {
		return ""
	}
	user, err := r.auth.Resolve(req.Context(), token)
	if err != nil {
		return ""
	}
	return user.ID
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}
