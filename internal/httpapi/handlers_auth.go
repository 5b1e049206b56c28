package httpapi

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Allliance/content-rating/internal/apierr"
	"github.com/Allliance/content-rating/internal/auth"
)

// authHandlers implements the three auth endpoints restored in §9's
// Supplemented features: register, issue a token pair, refresh an access
// token. They're thin by design — auth policy itself is an external
// collaborator (§1) — but real enough that the pipeline runs end to end.
type authHandlers struct {
	users  *auth.UserStore
	tokens *auth.TokenManager
}

func (h *authHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validationf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]auth.User{"user": user})
}

func (h *authHandlers) token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validationf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	access, err := h.tokens.IssueAccess(user.UserID, user.Username)
	if err != nil {
		writeError(w, apierr.Transient(err, "issue access token"))
		return
	}
	refresh, err := h.tokens.IssueRefresh(user.UserID, user.Username)
	if err != nil {
		writeError(w, apierr.Transient(err, "issue refresh token"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (h *authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validationf("malformed request body"))
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, err)
		return
	}

	claims, err := h.tokens.ParseRefresh(req.Refresh)
	if err != nil {
		writeError(w, apierr.AuthFailuref("invalid or expired refresh token"))
		return
	}

	user, err := h.users.ByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	access, err := h.tokens.IssueAccess(user.UserID, user.Username)
	if err != nil {
		writeError(w, apierr.Transient(err, "issue access token"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
