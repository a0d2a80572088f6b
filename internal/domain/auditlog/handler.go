package auditlog

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/platform/web"
)

// RegisterAdminRoutes monta /logs dentro del subrouter /admin (ya protegido por rol).
func RegisterAdminRoutes(r chi.Router, svc *Service) {
	r.Get("/logs", listLogsHandler(svc))
}

type entryResponse struct {
	ID         string         `json:"id"`
	Action     Action         `json:"action"`
	ActorID    string         `json:"actor_id,omitempty"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	IP         string         `json:"ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// listLogsHandler godoc
// @Summary Listar audit logs
// @Description Solo admin. Filtros opcionales por acción (CSV), tipo/ID de entidad, actor, rango de fechas y texto libre.
// @Tags admin
// @Produce json
// @Param actions query string false "CSV de acciones (ej: PET_CREATED,USER_LOGIN)"
// @Param entity_type query string false "Tipo de entidad"
// @Param entity_id query string false "ID de entidad"
// @Param actor_id query string false "ID del actor"
// @Param from query string false "Desde (RFC3339)"
// @Param to query string false "Hasta (RFC3339)"
// @Param q query string false "Texto libre sobre acción/entidad"
// @Param limit query int false "1-200, por defecto 50"
// @Success 200 {array} entryResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 401 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Router /admin/logs [get]
func listLogsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseListFilter(r)
		if err != nil {
			web.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			web.Error(w, http.StatusInternalServerError, "internal error")
			return
		}

		out := make([]entryResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEntryResponse(e))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit, err := web.QueryInt(r, "limit", DefaultLimit)
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	filter := ListFilter{
		Limit:      limit,
		EntityType: EntityType(strings.TrimSpace(r.URL.Query().Get("entity_type"))),
		EntityID:   strings.TrimSpace(r.URL.Query().Get("entity_id")),
		ActorID:    strings.TrimSpace(r.URL.Query().Get("actor_id")),
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
	}

	for _, a := range web.QueryList(r, "actions") {
		filter.Actions = append(filter.Actions, Action(strings.ToUpper(a)))
	}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return ListFilter{}, errors.New("from must be before to")
	}

	return filter, nil
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  e.CreatedAt,
	}
}
