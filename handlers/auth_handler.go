package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ctfboard/ctfboard/services"
)

type AuthHandler struct {
	authService *services.AdminAuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService *services.AdminAuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// Login exchanges the admin password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(h.logger, w, r, err)
		return
	}
	if input.Password == "" {
		badRequestResponse(h.logger, w, r, errors.New("password is required"))
		return
	}

	token, err := h.authService.Login(input.Password)
	if err != nil {
		mapServiceErrorToHTTP(h.logger, w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": token}, nil); err != nil {
		serverErrorResponse(h.logger, w, r, err)
	}
}
