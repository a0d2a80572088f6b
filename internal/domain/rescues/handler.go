package rescues

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/domain/users"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/rescues", func(rr chi.Router) {
		rr.Get("/", listRescuesHandler(svc))

		// Solicitudes de alta (usuario autenticado)
		rr.Group(func(ar chi.Router) {
			ar.Use(middleware.RequireAuth)
			ar.Post("/requests", submitRequestHandler(svc, audit))
			ar.Get("/requests/mine", myRequestsHandler(svc))
		})

		rr.Get("/{rescueID}", getRescueHandler(svc))
		rr.With(middleware.RequireRole(auth.RoleRescue, auth.RoleAdmin)).
			Patch("/{rescueID}", updateRescueHandler(svc, audit))
	})
}

// RegisterAdminRoutes monta /rescues y /rescue-requests dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Get("/rescues", listRescuesHandler(svc))
	r.Delete("/rescues/{rescueID}", deleteRescueHandler(svc, audit))

	r.Route("/rescue-requests", func(rr chi.Router) {
		rr.Get("/", listRequestsHandler(svc))
		rr.Post("/{requestID}/approve", approveRequestHandler(svc, audit))
		rr.Post("/{requestID}/reject", rejectRequestHandler(svc, audit))
	})
}

type rescueResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Location           string    `json:"location"`
	ContactEmail       string    `json:"contact_email"`
	Description        string    `json:"description"`
	Website            string    `json:"website,omitempty"`
	LogoURL            string    `json:"logo_url,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type detailsRequest struct {
	Name               string `json:"name"`
	Location           string `json:"location"`
	ContactEmail       string `json:"contact_email"`
	Description        string `json:"description"`
	Website            string `json:"website"`
	LogoURL            string `json:"logo_url"`
	RegistrationNumber string `json:"registration_number"`
}

type updateRescueRequest struct {
	Name               *string `json:"name"`
	Location           *string `json:"location"`
	ContactEmail       *string `json:"contact_email"`
	Description        *string `json:"description"`
	Website            *string `json:"website"`
	LogoURL            *string `json:"logo_url"`
	RegistrationNumber *string `json:"registration_number"`
}

type decisionRequest struct {
	Note string `json:"note"`
}

type requestResponse struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"user_id"`
	Status             RequestStatus `json:"status"`
	Name               string        `json:"name"`
	Location           string        `json:"location"`
	ContactEmail       string        `json:"contact_email"`
	Description        string        `json:"description"`
	Website            string        `json:"website,omitempty"`
	LogoURL            string        `json:"logo_url,omitempty"`
	RegistrationNumber string        `json:"registration_number,omitempty"`
	RescueID           string        `json:"rescue_id,omitempty"`
	DecidedBy          string        `json:"decided_by,omitempty"`
	DecisionNote       string        `json:"decision_note,omitempty"`
	DecidedAt          *time.Time    `json:"decided_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// listRescuesHandler godoc
// @Summary Listar rescues
// @Tags rescues
// @Produce json
// @Success 200 {array} rescueResponse
// @Router /rescues [get]
func listRescuesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]rescueResponse, 0, len(items))
		for _, x := range items {
			out = append(out, toRescueResponse(x))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

// getRescueHandler godoc
// @Summary Obtener rescue
// @Tags rescues
// @Produce json
// @Param rescueID path string true "ID de la rescue"
// @Success 200 {object} rescueResponse
// @Failure 404 {object} web.ErrorBody
// @Router /rescues/{rescueID} [get]
func getRescueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, err := svc.Get(r.Context(), chi.URLParam(r, "rescueID"))
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRescueResponse(x))
	}
}

func updateRescueHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req updateRescueRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		x, err := svc.Update(r.Context(), viewer, chi.URLParam(r, "rescueID"), UpdateInput{
			Name:               req.Name,
			Location:           req.Location,
			ContactEmail:       req.ContactEmail,
			Description:        req.Description,
			Website:            req.Website,
			LogoURL:            req.LogoURL,
			RegistrationNumber: req.RegistrationNumber,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionRescueUpdated, auditlog.EntityRescue, x.ID, nil)
		web.WriteJSON(w, http.StatusOK, toRescueResponse(x))
	}
}

func deleteRescueHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())
		id := chi.URLParam(r, "rescueID")

		if err := svc.Delete(r.Context(), viewer, id); err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), auditlog.ActionRescueDeleted, auditlog.EntityRescue, id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// submitRequestHandler godoc
// @Summary Solicitar alta de rescue
// @Description Una solicitud pendiente previa del mismo usuario se reemplaza por esta.
// @Tags rescues
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param payload body detailsRequest true "Datos de la rescue"
// @Success 201 {object} requestResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 401 {object} web.ErrorBody
// @Router /rescues/requests [post]
func submitRequestHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req detailsRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		out, err := svc.SubmitRequest(r.Context(), viewer, Details(req))
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionRescueRequested, auditlog.EntityRescueRequest, out.ID, map[string]any{
			"name": out.Details.Name,
		})
		web.WriteJSON(w, http.StatusCreated, toRequestResponse(out))
	}
}

func myRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())
		items, err := svc.MyRequests(r.Context(), viewer.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

// listRequestsHandler godoc
// @Summary Listar solicitudes de rescue
// @Tags admin
// @Produce json
// @Param status query string false "pending | approved | rejected | withdrawn"
// @Success 200 {array} requestResponse
// @Router /admin/rescue-requests [get]
func listRequestsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status RequestStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			st, ok := ParseRequestStatus(strings.ToLower(raw))
			if !ok {
				web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
					"status": "must be one of pending, approved, rejected, withdrawn",
				})
				return
			}
			status = st
		}

		items, err := svc.ListRequests(r.Context(), status)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRequestResponses(items))
	}
}

func approveRequestHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.GetClaims(r.Context())

		var req decisionRequest
		if r.ContentLength > 0 {
			if err := web.DecodeJSON(r, &req); err != nil {
				web.Error(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		out, rescue, err := svc.Approve(r.Context(), actor, chi.URLParam(r, "requestID"), req.Note)
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionRescueRequestDecided, auditlog.EntityRescueRequest, out.ID, map[string]any{
			"status":    string(out.Status),
			"rescue_id": rescue.ID,
			"user_id":   out.UserID,
		})
		web.WriteJSON(w, http.StatusOK, toRequestResponse(out))
	}
}

func rejectRequestHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.GetClaims(r.Context())

		var req decisionRequest
		if r.ContentLength > 0 {
			if err := web.DecodeJSON(r, &req); err != nil {
				web.Error(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		out, err := svc.Reject(r.Context(), actor, chi.URLParam(r, "requestID"), req.Note)
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionRescueRequestDecided, auditlog.EntityRescueRequest, out.ID, map[string]any{
			"status": string(out.Status),
		})
		web.WriteJSON(w, http.StatusOK, toRequestResponse(out))
	}
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrForbidden):
		web.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRequestNotFound), errors.Is(err, users.ErrNotFound):
		web.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrBadState):
		web.Error(w, http.StatusConflict, "request already decided")
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toRescueResponse(x Rescue) rescueResponse {
	return rescueResponse{
		ID:                 x.ID,
		Name:               x.Name,
		Location:           x.Location,
		ContactEmail:       x.ContactEmail,
		Description:        x.Description,
		Website:            x.Website,
		LogoURL:            x.LogoURL,
		RegistrationNumber: x.RegistrationNumber,
		CreatedAt:          x.CreatedAt,
		UpdatedAt:          x.UpdatedAt,
	}
}

func toRequestResponse(x Request) requestResponse {
	return requestResponse{
		ID:                 x.ID,
		UserID:             x.UserID,
		Status:             x.Status,
		Name:               x.Details.Name,
		Location:           x.Details.Location,
		ContactEmail:       x.Details.ContactEmail,
		Description:        x.Details.Description,
		Website:            x.Details.Website,
		LogoURL:            x.Details.LogoURL,
		RegistrationNumber: x.Details.RegistrationNumber,
		RescueID:           x.RescueID,
		DecidedBy:          x.DecidedBy,
		DecisionNote:       x.DecisionNote,
		DecidedAt:          x.DecidedAt,
		CreatedAt:          x.CreatedAt,
		UpdatedAt:          x.UpdatedAt,
	}
}

func toRequestResponses(items []Request) []requestResponse {
	out := make([]requestResponse, 0, len(items))
	for _, x := range items {
		out = append(out, toRequestResponse(x))
	}
	return out
}
