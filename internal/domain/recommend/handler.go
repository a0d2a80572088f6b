package recommend

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/platform/web"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/recommendations", func(rr chi.Router) {
		rr.Get("/questions", questionsHandler())
		rr.Post("/", recommendHandler(svc))
	})
}

type resultResponse struct {
	Score      int             `json:"score"`
	Backfilled bool            `json:"backfilled"`
	Pet        json.RawMessage `json:"pet" swaggertype:"object"`
}

type recommendResponse struct {
	Source  Source           `json:"source"`
	Results []resultResponse `json:"results"`
}

// questionsHandler godoc
// @Summary Cuestionario de recomendación
// @Tags recommendations
// @Produce json
// @Success 200 {array} Question
// @Router /recommendations/questions [get]
func questionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, http.StatusOK, Questions())
	}
}

// recommendHandler godoc
// @Summary Recomendar mascotas
// @Description Evalúa hasta 50 mascotas disponibles y devuelve las 3 mejores según las respuestas.
// @Tags recommendations
// @Accept json
// @Produce json
// @Param payload body Answers true "Respuestas"
// @Success 200 {object} recommendResponse
// @Failure 400 {object} web.ErrorBody
// @Router /recommendations [post]
func recommendHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Answers
		if err := web.DecodeJSON(r, &a); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		results, src := svc.Recommend(r.Context(), a)

		out := recommendResponse{Source: src, Results: make([]resultResponse, 0, len(results))}
		for _, res := range results {
			out.Results = append(out.Results, resultResponse{
				Score:      res.Score,
				Backfilled: res.Backfilled,
				Pet:        pets.ToJSON(res.Pet),
			})
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}
