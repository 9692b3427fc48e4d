package httpx

import (
	"context"
	"net/http"
)

// handleStatus reports backend reachability.
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	dbOK := r.dbHealth != nil && r.dbHealth(ctx) == nil
	kvOK := r.kvHealth != nil && r.kvHealth(ctx) == nil
	writeJSON(w, http.StatusOK, map[string]bool{
		"redis": kvOK,
		"db":    dbOK,
	})
}

// handleStats reports stored user and file counts.
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	users, files, err := r.accounts.Stats(req.Context())
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"users": users,
		"files": files,
	})
}
