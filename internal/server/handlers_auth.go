package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"casaya/internal/app"
)

type registerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"correo"`
	Phone    string `json:"telefono"`
	Password string `json:"contrasena"`
}

type loginRequest struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo JSON inválido.")
		return
	}
	_, err := s.app.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrEmailExists):
			writeError(w, http.StatusConflict, "El correo electrónico ya está registrado.")
		case errors.Is(err, app.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "Faltan campos obligatorios.")
		default:
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"mensaje": "Registro exitoso. Serás redirigido al Login.",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo JSON inválido.")
		return
	}
	user, token, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "Faltan correo y/o contraseña.")
		case errors.Is(err, app.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Correo o contraseña incorrectos.")
		default:
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Acceso exitoso. Bienvenido.",
		"token":   token,
		"usuario": map[string]any{
			"id":     user.ID,
			"nombre": user.Name,
			"rol":    user.Role,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Se requiere autenticación.")
		return
	}
	if err := s.app.Logout(r.Context(), token); err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Sesión cerrada.",
	})
}
