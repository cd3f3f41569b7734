package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/and161185/tokenstall/internal/errs"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	id, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "ALREADY_EXISTS", "username is taken")
			return
		}
		writeMappedError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"user_id": id})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	tokens, user, err := s.auth.LoginWithIP(r.Context(), req.Username, req.Password, readIP(r))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
			return
		}
		writeMappedError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user_id":      user.ID,
		"access_token": tokens.AccessToken,
		"expires_at":   tokens.ExpiresAt.Format(time.RFC3339),
	})
}
