package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/driftbox/driftbox/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userPayload(user *domain.User) map[string]string {
	return map[string]string{
		"id":    user.ID,
		"email": user.Email,
	}
}

// handleRegister creates an account from an email/password body.
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var body registerRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	user, err := r.accounts.Register(req.Context(), body.Email, body.Password)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userPayload(user))
}

// handleConnect exchanges Basic credentials for a session token.
func (r *Router) handleConnect(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	email, password, ok := req.BasicAuth()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	token, err := r.auth.Login(req.Context(), email, password)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleDisconnect revokes the presented session token.
func (r *Router) handleDisconnect(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	token := strings.TrimSpace(req.Header.Get(tokenHeader))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := r.auth.Logout(req.Context(), token); err != nil {
		r.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the account behind the presented session token.
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	token := strings.TrimSpace(req.Header.Get(tokenHeader))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := r.accounts.WhoAmI(req.Context(), token)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userPayload(user))
}
