package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/auditlog"
	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/platform/web"
	"pet-adoption-api/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/pets", func(pr chi.Router) {
		// Lectura pública; las notas internas dependen del viewer.
		pr.Get("/", listPetsHandler(svc))
		pr.Get("/{petID}", getPetHandler(svc))

		pr.Group(func(mr chi.Router) {
			mr.Use(middleware.RequireRole(auth.RoleRescue, auth.RoleAdmin))
			mr.Post("/", createPetHandler(svc, audit))
			mr.Put("/{petID}", updatePetHandler(svc, audit))
			mr.Patch("/{petID}", updatePetHandler(svc, audit))
		})

		pr.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/{petID}", deletePetHandler(svc, audit))
	})
}

type createPetRequest struct {
	Name          string   `json:"name"`
	Species       string   `json:"species" enums:"capybara,guinea_pig,rock_cavy,chinchilla"`
	Age           int      `json:"age"`
	Size          string   `json:"size" enums:"small,medium,large,extra_large"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	Gallery       []string `json:"gallery"`
	InternalNotes string   `json:"internal_notes"`
	RescueID      string   `json:"rescue_id"` // solo admin
}

type updatePetRequest struct {
	Name          *string   `json:"name"`
	Species       *string   `json:"species"`
	Age           *int      `json:"age"`
	Size          *string   `json:"size"`
	Description   *string   `json:"description"`
	ImageURL      *string   `json:"image_url"`
	Gallery       *[]string `json:"gallery"`
	InternalNotes *string   `json:"internal_notes"`
	Adopted       *bool     `json:"adopted"`
	Promoted      *bool     `json:"promoted"`
	Version       *int      `json:"version"`
}

type petResponse struct {
	ID            string     `json:"id"`
	RefNumber     int64      `json:"ref_number"`
	Name          string     `json:"name"`
	Species       Species    `json:"species"`
	Age           int        `json:"age"`
	Size          Size       `json:"size"`
	Description   string     `json:"description"`
	ImageURL      string     `json:"image_url,omitempty"`
	Gallery       []string   `json:"gallery"`
	RescueID      string     `json:"rescue_id"`
	Adopted       bool       `json:"adopted"`
	Promoted      bool       `json:"promoted"`
	PromotedUntil *time.Time `json:"promoted_until,omitempty"`
	InternalNotes string     `json:"internal_notes,omitempty"`
	DateListed    time.Time  `json:"date_listed"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
}

type petListResponse struct {
	Items      []petResponse `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// listPetsHandler godoc
// @Summary Listar mascotas
// @Description Lista paginada con filtros combinados (AND). species/size aceptan CSV o parámetros repetidos. minAge=0 y maxAge=20 equivalen a "sin filtro". showAdopted solo aplica para admin o para la rescue dueña filtrando por su rescueId.
// @Tags pets
// @Produce json
// @Param species query string false "CSV: capybara,guinea_pig,rock_cavy,chinchilla"
// @Param size query string false "CSV: small,medium,large,extra_large"
// @Param minAge query int false "Edad mínima (inclusive)"
// @Param maxAge query int false "Edad máxima (inclusive)"
// @Param search query string false "Texto en nombre o descripción"
// @Param sort query string false "dateListed | age | name"
// @Param order query string false "asc | desc"
// @Param rescueId query string false "Restringe a una rescue"
// @Param showAdopted query bool false "Incluir adoptadas"
// @Param page query int false "Página (1-based)"
// @Param limit query int false "Tamaño de página (máx 50)"
// @Success 200 {object} petListResponse
// @Failure 400 {object} web.ErrorBody
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		f, err := parseFilter(r)
		if err != nil {
			writeError(w, err)
			return
		}

		page, err := svc.List(r.Context(), viewer, f)
		if err != nil {
			writeError(w, err)
			return
		}

		out := petListResponse{
			Items:      make([]petResponse, 0, len(page.Items)),
			Pagination: page.Pagination,
		}
		for _, p := range page.Items {
			out.Items = append(out.Items, toPetResponse(p))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Obtener mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {object} web.ErrorBody
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		p, err := svc.Get(r.Context(), viewer, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("ETag", etag(p.Version))
		web.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// createPetHandler godoc
// @Summary Publicar mascota
// @Description Rescue publica bajo su propia rescue; admin debe indicar rescue_id.
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 401 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Router /pets [post]
func createPetHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())

		var req createPetRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		p, err := svc.Create(r.Context(), viewer, CreateInput{
			Name:          req.Name,
			Species:       req.Species,
			Age:           req.Age,
			Size:          req.Size,
			Description:   req.Description,
			ImageURL:      req.ImageURL,
			Gallery:       req.Gallery,
			InternalNotes: req.InternalNotes,
			RescueID:      req.RescueID,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionPetCreated, auditlog.EntityPet, p.ID, map[string]any{
			"name":      p.Name,
			"rescue_id": p.RescueID,
		})

		w.Header().Set("ETag", etag(p.Version))
		web.WriteJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// updatePetHandler aplica permisos (admin o staff de la rescue dueña) y control de versión:
// la versión esperada viene en "version" o en If-Match; si no coincide => 409.
func updatePetHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())
		petID := chi.URLParam(r, "petID")

		var req updatePetRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		expected := req.Version
		if expected == nil {
			if v, ok := parseIfMatch(r.Header.Get("If-Match")); ok {
				expected = &v
			}
		}

		p, err := svc.Update(r.Context(), viewer, petID, UpdateInput{
			Name:            req.Name,
			Species:         req.Species,
			Age:             req.Age,
			Size:            req.Size,
			Description:     req.Description,
			ImageURL:        req.ImageURL,
			Gallery:         req.Gallery,
			InternalNotes:   req.InternalNotes,
			Adopted:         req.Adopted,
			Promoted:        req.Promoted,
			ExpectedVersion: expected,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionPetUpdated, auditlog.EntityPet, p.ID, map[string]any{
			"version": p.Version,
		})

		w.Header().Set("ETag", etag(p.Version))
		web.WriteJSON(w, http.StatusOK, toPetResponse(p))
	}
}

func deletePetHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, _ := middleware.GetClaims(r.Context())
		petID := chi.URLParam(r, "petID")

		if err := svc.Delete(r.Context(), viewer, petID); err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionPetDeleted, auditlog.EntityPet, petID, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	errs := validation.Errors{}

	f := Filter{
		Species:     web.QueryList(r, "species"),
		Sizes:       web.QueryList(r, "size"),
		Search:      q.Get("search"),
		SortBy:      q.Get("sort"),
		SortOrder:   q.Get("order"),
		RescueID:    q.Get("rescueId"),
		ShowAdopted: web.QueryBool(r, "showAdopted"),
	}

	f.MinAge = optionalInt(r, "minAge", errs)
	f.MaxAge = optionalInt(r, "maxAge", errs)

	page, err := web.QueryInt(r, "page", 1)
	if err != nil {
		errs.Add("page", "must be an integer")
	}
	f.Page = page

	limit, err := web.QueryInt(r, "limit", 0)
	if err != nil {
		errs.Add("limit", "must be an integer")
	}
	f.Limit = limit

	return f, errs.Err()
}

func optionalInt(r *http.Request, key string, errs validation.Errors) *int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(key, "must be an integer")
		return nil
	}
	return &n
}

func etag(version int) string {
	return `"` + strconv.Itoa(version) + `"`
}

func parseIfMatch(h string) (int, bool) {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "W/")
	h = strings.Trim(h, `"`)
	if h == "" {
		return 0, false
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrForbidden):
		web.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrVersionConflict):
		web.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		web.Error(w, http.StatusBadRequest, err.Error())
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toPetResponse(p Pet) petResponse {
	gallery := p.Gallery
	if gallery == nil {
		gallery = []string{}
	}
	return petResponse{
		ID:            p.ID,
		RefNumber:     p.RefNumber,
		Name:          p.Name,
		Species:       p.Species,
		Age:           p.Age,
		Size:          p.Size,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Gallery:       gallery,
		RescueID:      p.RescueID,
		Adopted:       p.Adopted,
		Promoted:      p.Promoted,
		PromotedUntil: p.PromotedUntil,
		InternalNotes: p.InternalNotes,
		DateListed:    p.DateListed,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToJSON expone la representación pública para otros módulos (applications, recomendaciones).
func ToJSON(p Pet) json.RawMessage {
	b, _ := json.Marshal(toPetResponse(p))
	return b
}
