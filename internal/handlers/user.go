package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/petermazzocco/memory-wall/internal/auth"
	"github.com/petermazzocco/memory-wall/internal/logging"
)

const maxLoginBody = 1 << 16

type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// UserLoginHandler exchanges admin credentials for a bearer token.
func UserLoginHandler(w http.ResponseWriter, r *http.Request, svc LoginService) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logging.FromContext(r.Context()).Info("failed login", "username", req.Username)
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logging.FromContext(r.Context()).Error("login failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
