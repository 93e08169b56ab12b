package www

import (
	"encoding/json"
	"log"
	"net/http"
)

func (h *Handlers) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.engine.DB().GetAdminUser(req.Username)
	if err != nil || !checkPassword(user.PasswordHash, req.Password) {
		h.jsonError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}

	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = true
	session.Values["username"] = req.Username
	if err := session.Save(r, w); err != nil {
		log.Printf("auth: session save error: %v", err)
	}

	h.jsonOK(w, map[string]string{"username": req.Username})
}

func (h *Handlers) apiLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Values["username"] = ""
	session.Save(r, w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) apiSession(w http.ResponseWriter, r *http.Request) {
	h.jsonOK(w, map[string]any{
		"authenticated": h.isAuthenticated(r),
		"username":      h.getUsername(r),
	})
}

func (h *Handlers) apiChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 4 {
		h.jsonError(w, "new password too short", http.StatusBadRequest)
		return
	}

	username := h.getUsername(r)
	user, err := h.engine.DB().GetAdminUser(username)
	if err != nil || !checkPassword(user.PasswordHash, req.CurrentPassword) {
		h.jsonError(w, "current password is incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		h.jsonError(w, "hash password", http.StatusInternalServerError)
		return
	}
	if err := h.engine.DB().UpdateAdminPassword(username, hash); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("auth: password changed for %s", username)
	w.WriteHeader(http.StatusNoContent)
}
