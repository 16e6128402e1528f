package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"casaya/internal/util"
)

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, publisherID uint) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Formulario multipart inválido.")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	result, err := s.app.PublishProperty(r.Context(), publisherID, url.Values(r.MultipartForm.Value), r.MultipartForm)
	if err != nil {
		switch {
		case isValidationError(err):
			writeError(w, http.StatusBadRequest, "Faltan datos obligatorios (título, precio, dirección).")
		case isNoFilesError(err):
			writeError(w, http.StatusBadRequest, "No llegaron imágenes. Asegura enviar FormData correctamente.")
		case isZeroImagesError(err):
			writeError(w, http.StatusBadRequest, "Ninguna imagen de la solicitud fue utilizable.")
		default:
			s.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"mensaje":      "Propiedad publicada correctamente",
		"imagenes":     result.ImageCount,
		"id_propiedad": result.PropertyID,
	})
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	var err error
	properties := []any{}
	if raw := strings.TrimSpace(r.URL.Query().Get("usuario")); raw != "" {
		publisherID, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil || publisherID == 0 {
			writeError(w, http.StatusBadRequest, "Parámetro usuario inválido.")
			return
		}
		list, listErr := s.app.ListPropertiesByPublisher(r.Context(), uint(publisherID))
		err = listErr
		for _, p := range list {
			properties = append(properties, p)
		}
	} else {
		list, listErr := s.app.ListProperties(r.Context())
		err = listErr
		for _, p := range list {
			properties = append(properties, p)
		}
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"mensaje": "Propiedades obtenidas con éxito.",
		"data":    properties,
	})
}

// GET /propiedades/{id}
func (s *Server) handlePropertyByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, ok := pathID(r.URL.Path, "/propiedades/")
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de propiedad no proporcionado o inválido.")
		return
	}
	detail, err := s.app.GetProperty(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Propiedad no encontrada.")
			return
		}
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"mensaje":   "Detalle de propiedad cargado exitosamente.",
		"propiedad": detail.Property,
		"agente":    detail.Contact,
	})
}

// GET /usuarios/{id}
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, ok := pathID(r.URL.Path, "/usuarios/")
	if !ok {
		writeError(w, http.StatusBadRequest, "ID de usuario no proporcionado o inválido.")
		return
	}
	profile, err := s.app.GetProfile(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Perfil de usuario no encontrado.")
			return
		}
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"perfil":  profile,
	})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	util.LoggerFromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "Error interno del servidor.")
}

func pathID(path, prefix string) (uint, bool) {
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
