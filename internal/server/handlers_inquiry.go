package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"casaya/internal/app"
)

type createInquiryRequest struct {
	PropertyID uint `json:"id_propiedad"`
}

// POST sends an inquiry (authenticated); GET lists them by requester
// (?usuario=) or by listing (?propiedad=).
func (s *Server) handleInquiries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.withUser(w, r, s.handleCreateInquiry)
	case http.MethodGet:
		s.handleListInquiries(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateInquiry(w http.ResponseWriter, r *http.Request, requesterID uint) {
	var req createInquiryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil || req.PropertyID == 0 {
		writeError(w, http.StatusBadRequest, "ID de propiedad no proporcionado o inválido.")
		return
	}
	inq, err := s.app.CreateInquiry(r.Context(), requesterID, req.PropertyID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPropertyNotFound):
			writeError(w, http.StatusNotFound, "Propiedad no encontrada.")
		case errors.Is(err, app.ErrDuplicateInquiry):
			writeErrorCode(w, http.StatusConflict, "INQUIRY_DUPLICATE", "Ya has enviado una solicitud para esta propiedad.")
		default:
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"mensaje":      "Solicitud enviada exitosamente",
		"id_solicitud": inq.ID,
	})
}

func (s *Server) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("usuario")); raw != "" {
		requesterID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || requesterID == 0 {
			writeError(w, http.StatusBadRequest, "Parámetro usuario inválido.")
			return
		}
		inquiries, err := s.app.ListInquiriesByRequester(r.Context(), uint(requesterID))
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"mensaje": "Solicitudes obtenidas.",
			"data":    inquiries,
		})
		return
	}
	if raw := strings.TrimSpace(query.Get("propiedad")); raw != "" {
		propertyID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || propertyID == 0 {
			writeError(w, http.StatusBadRequest, "Parámetro propiedad inválido.")
			return
		}
		inquiries, err := s.app.ListInquiriesByProperty(r.Context(), uint(propertyID))
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"mensaje": "Solicitudes obtenidas.",
			"data":    inquiries,
		})
		return
	}
	writeError(w, http.StatusBadRequest, "Parámetro usuario o propiedad requerido.")
}

// DELETE /solicitudes/{id}
func (s *Server) handleInquiryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	s.withUser(w, r, func(w http.ResponseWriter, r *http.Request, requesterID uint) {
		id, ok := pathID(r.URL.Path, "/solicitudes/")
		if !ok {
			writeError(w, http.StatusBadRequest, "ID de solicitud no proporcionado o inválido.")
			return
		}
		if err := s.app.DeleteInquiry(r.Context(), requesterID, id); err != nil {
			switch {
			case errors.Is(err, app.ErrInquiryNotFound):
				writeErrorCode(w, http.StatusNotFound, "INQUIRY_NOT_FOUND", "Solicitud no encontrada.")
			case errors.Is(err, app.ErrNotInquiryOwner):
				writeError(w, http.StatusForbidden, "No puedes eliminar esta solicitud.")
			default:
				s.serverError(w, r, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"mensaje": "Solicitud eliminada.",
		})
	})
}
