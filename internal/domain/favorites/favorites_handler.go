package favorites

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/local-guide/internal/types"
	"github.com/FACorreiaa/local-guide/pkg/interceptors"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts the favorites routes. PATCH serves older clients only.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/favorites", h.List)
	mux.HandleFunc("POST /api/favorites", h.Add)
	mux.HandleFunc("DELETE /api/favorites", h.Remove)
	mux.HandleFunc("PATCH /api/favorites", h.LegacyToggle)
}

type addResponse struct {
	PlaceID string `json:"placeId"`
}

type toggleResponse struct {
	PlaceID  string `json:"placeId"`
	Favorite bool   `json:"favorite"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req types.FavoriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.Add(r.Context(), userID, req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addResponse{PlaceID: req.ID})
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	placeID := strings.TrimSpace(r.URL.Query().Get("placeId"))
	if placeID == "" {
		interceptors.WriteError(w, http.StatusBadRequest, "placeId is required")
		return
	}
	if err := h.service.Remove(r.Context(), userID, placeID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LegacyToggle maps PATCH {placeId, favorite} onto the canonical operations.
func (h *Handler) LegacyToggle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Deprecation", "true")
	w.Header().Set("Link", `</api/favorites>; rel="successor-version"`)

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req types.LegacyFavoriteToggle
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PlaceID) == "" {
		interceptors.WriteError(w, http.StatusBadRequest, "placeId is required")
		return
	}
	if err := h.service.SetFavorite(r.Context(), userID, req.PlaceID, req.Favorite); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{PlaceID: req.PlaceID, Favorite: req.Favorite})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		interceptors.WriteError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid user ID in context", slog.Any("error", err))
		interceptors.WriteError(w, http.StatusUnauthorized, "invalid session")
		return uuid.Nil, false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		interceptors.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrBadRequest):
		interceptors.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrUnauthenticated):
		interceptors.WriteError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, types.ErrForbidden):
		interceptors.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, types.ErrNotFound):
		interceptors.WriteError(w, http.StatusNotFound, "place not found")
	case errors.Is(err, types.ErrConflict):
		interceptors.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "favorites request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		interceptors.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
