package applications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/applications", func(ar chi.Router) {
		ar.Use(middleware.RequireAuth)

		ar.Post("/", createApplicationHandler(svc, audit))
		ar.Get("/", listApplicationsHandler(svc))
		ar.Get("/{applicationID}", getApplicationHandler(svc))
		ar.With(middleware.RequireRole(auth.RoleRescue, auth.RoleAdmin)).
			Patch("/{applicationID}/status", decideApplicationHandler(svc, audit))
	})
}

type createApplicationRequest struct {
	PetID    string         `json:"pet_id"`
	FormData map[string]any `json:"form_data"`
}

type decideRequest struct {
	Status string `json:"status" enums:"approved,rejected"`
	Note   string `json:"note"`
}

type applicationResponse struct {
	ID           string          `json:"id"`
	ApplicantID  string          `json:"applicant_id"`
	PetID        string          `json:"pet_id"`
	RescueID     string          `json:"rescue_id"`
	Status       Status          `json:"status"`
	FormData     map[string]any  `json:"form_data"`
	DecidedBy    string          `json:"decided_by,omitempty"`
	DecisionNote string          `json:"decision_note,omitempty"`
	DecidedAt    *time.Time      `json:"decided_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Pet          json.RawMessage `json:"pet,omitempty" swaggertype:"object"`
}

// createApplicationHandler godoc
// @Summary Solicitar adopción
// @Description form_data requiere address, household (adults), experience, reference (name + phone o email) y consent=true.
// @Tags applications
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param payload body createApplicationRequest true "Solicitud"
// @Success 201 {object} applicationResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /applications [post]
func createApplicationHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req createApplicationRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		a, err := svc.Create(r.Context(), viewer, CreateInput{PetID: req.PetID, FormData: req.FormData})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionApplicationCreated, auditlog.EntityApplication, a.ID, map[string]any{
			"pet_id":    a.PetID,
			"rescue_id": a.RescueID,
		})
		web.WriteJSON(w, http.StatusCreated, toApplicationResponse(a))
	}
}

// listApplicationsHandler godoc
// @Summary Listar solicitudes
// @Description user: las propias. rescue: las de sus mascotas. admin: todas.
// @Tags applications
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param status query string false "pending | approved | rejected (acepta accepted/unsuccessful)"
// @Success 200 {array} applicationResponse
// @Router /applications [get]
func listApplicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var status Status
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			st, ok := ParseStatus(raw)
			if !ok {
				web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
					"status": "must be one of pending, approved, rejected",
				})
				return
			}
			status = st
		}

		items, err := svc.List(r.Context(), viewer, status)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]applicationResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toApplicationResponse(a))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

func getApplicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		v, err := svc.Get(r.Context(), viewer, chi.URLParam(r, "applicationID"))
		if err != nil {
			writeError(w, err)
			return
		}

		resp := toApplicationResponse(v.Application)
		if v.Pet.ID != "" {
			resp.Pet = pets.ToJSON(v.Pet)
		}
		web.WriteJSON(w, http.StatusOK, resp)
	}
}

// decideApplicationHandler godoc
// @Summary Aprobar o rechazar solicitud
// @Description Aprobar marca la mascota como adoptada y rechaza las demás pendientes.
// @Tags applications
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param applicationID path string true "ID de la solicitud"
// @Param payload body decideRequest true "Decisión"
// @Success 200 {object} applicationResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /applications/{applicationID}/status [patch]
func decideApplicationHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req decideRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		status, ok := ParseStatus(req.Status)
		if !ok {
			web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
				"status": "must be approved or rejected",
			})
			return
		}

		a, err := svc.Decide(r.Context(), viewer, chi.URLParam(r, "applicationID"), status, req.Note)
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionApplicationDecided, auditlog.EntityApplication, a.ID, map[string]any{
			"status": string(a.Status),
			"pet_id": a.PetID,
		})
		web.WriteJSON(w, http.StatusOK, toApplicationResponse(a))
	}
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "application not found")
	case errors.Is(err, pets.ErrNotFound):
		web.Error(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrForbidden):
		web.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrPetAdopted), errors.Is(err, ErrBadState):
		web.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, pets.ErrVersionConflict):
		web.Error(w, http.StatusConflict, err.Error())
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toApplicationResponse(a Application) applicationResponse {
	form := a.FormData
	if form == nil {
		form = map[string]any{}
	}
	return applicationResponse{
		ID:           a.ID,
		ApplicantID:  a.ApplicantID,
		PetID:        a.PetID,
		RescueID:     a.RescueID,
		Status:       a.Status,
		FormData:     form,
		DecidedBy:    a.DecidedBy,
		DecisionNote: a.DecisionNote,
		DecidedAt:    a.DecidedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
