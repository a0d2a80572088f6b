package uploads

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pet-adoption-api/internal/middleware"
	"pet-adoption-api/internal/platform/logger"
	"pet-adoption-api/internal/platform/web"
)

// IdempotencyHeader permite al cliente reintentar sin duplicar archivos.
const IdempotencyHeader = "Idempotency-Key"

// multipartOverhead cubre boundaries y headers del form además del archivo.
const multipartOverhead = 64 << 10

type uploadResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// NewRouter arma el servidor de imágenes: POST /upload, GET /uploads/* y /health.
func NewRouter(svc *Service, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.AccessLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		web.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/upload", uploadHandler(svc, log))

	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(svc.dir)))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		// sin listado de directorio
		if chi.URLParam(r, "*") == "" {
			web.Error(w, http.StatusNotFound, "not found")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})

	return r
}

// @Summary Subir imagen
// @Description Campo multipart "image" (jpeg, png, gif o webp; máx 5 MiB). Con el mismo Idempotency-Key (o el mismo contenido si no se envía) devuelve el archivo ya guardado.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Imagen"
// @Param Idempotency-Key header string false "Clave de idempotencia"
// @Success 201 {object} uploadResponse
// @Success 200 {object} uploadResponse "reintento"
// @Failure 400 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Failure 413 {object} web.ErrorBody
// @Failure 415 {object} web.ErrorBody
// @Router /upload [post]
func uploadHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)

		file, _, err := r.FormFile("image")
		if err != nil {
			var tooBig *http.MaxBytesError
			switch {
			case errors.As(err, &tooBig):
				web.Error(w, http.StatusRequestEntityTooLarge, ErrTooLarge.Error())
			case errors.Is(err, http.ErrMissingFile):
				web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{"image": "is required"})
			default:
				web.Error(w, http.StatusBadRequest, "invalid multipart form")
			}
			return
		}
		defer file.Close()

		res, err := svc.Store(r.Context(), r.Header.Get(IdempotencyHeader), file)
		if err != nil {
			writeError(w, log, err)
			return
		}

		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		web.WriteJSON(w, status, uploadResponse{Filename: res.Filename, URL: res.URL})
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, ErrEmpty), errors.Is(err, ErrInvalidKey):
		web.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTooLarge), errors.As(err, &tooBig):
		web.Error(w, http.StatusRequestEntityTooLarge, ErrTooLarge.Error())
	case errors.Is(err, ErrUnsupportedType):
		web.Error(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ErrKeyReused):
		web.Error(w, http.StatusConflict, err.Error())
	default:
		log.Error("upload failed", map[string]any{"error": err})
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}
