package users

import (
	"errors"
	"net/http"
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
	r.Route("/users", func(ur chi.Router) {
		ur.Post("/register", registerHandler(svc, audit))
		ur.Post("/login", loginHandler(svc, audit))
		ur.Post("/password-reset", requestResetHandler(svc, audit))
		ur.Post("/password-reset/confirm", confirmResetHandler(svc, audit))

		ur.Group(func(me chi.Router) {
			me.Use(middleware.RequireAuth)
			me.Get("/me", getMeHandler(svc))
			me.Patch("/me", updateMeHandler(svc, audit))
			me.Put("/me/password", changePasswordHandler(svc, audit))
		})
	})
}

// RegisterAdminRoutes monta /users dentro de /admin.
func RegisterAdminRoutes(r chi.Router, svc *Service, audit *auditlog.Service) {
	r.Route("/users", func(ar chi.Router) {
		ar.Get("/", adminListUsersHandler(svc))
		ar.Patch("/{userID}", adminUpdateUserHandler(svc, audit))
		ar.Delete("/{userID}", adminDeleteUserHandler(svc, audit))
	})
}

type registerRequest struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Profile  map[string]any `json:"profile"`
}

type loginRequest struct {
	// Login acepta email o username.
	Login    string `json:"login"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Role      auth.Role      `json:"role"`
	RescueID  string         `json:"rescue_id,omitempty"`
	Profile   map[string]any `json:"profile"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type updateMeRequest struct {
	Username *string        `json:"username"`
	Email    *string        `json:"email"`
	Profile  map[string]any `json:"profile"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type adminUpdateUserRequest struct {
	Role     string `json:"role" enums:"user,rescue,admin"`
	RescueID string `json:"rescue_id"`
}

// registerHandler godoc
// @Summary Registro
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} authResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /users/register [post]
func registerHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, tok, err := svc.Register(r.Context(), RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Profile:  req.Profile,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.RecordAs(r.Context(), u.ID, auditlog.ActionUserRegistered, auditlog.EntityUser, u.ID, map[string]any{
			"username": u.Username,
		})
		web.WriteJSON(w, http.StatusCreated, authResponse{Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: toUserResponse(u)})
	}
}

// loginHandler godoc
// @Summary Login
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} authResponse
// @Failure 401 {object} web.ErrorBody
// @Router /users/login [post]
func loginHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, tok, err := svc.Login(r.Context(), req.Login, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				audit.RecordAs(r.Context(), "", auditlog.ActionUserLoginFailed, auditlog.EntityUser, "", map[string]any{
					"login": strings.TrimSpace(req.Login),
				})
			}
			writeError(w, err)
			return
		}

		audit.RecordAs(r.Context(), u.ID, auditlog.ActionUserLogin, auditlog.EntityUser, u.ID, nil)
		web.WriteJSON(w, http.StatusOK, authResponse{Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: toUserResponse(u)})
	}
}

// getMeHandler godoc
// @Summary Mi perfil
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} userResponse
// @Failure 401 {object} web.ErrorBody
// @Router /users/me [get]
func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		u, err := svc.Get(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateMeHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req updateMeRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		u, err := svc.UpdateProfile(r.Context(), claims.UserID, ProfileInput{
			Username: req.Username,
			Email:    req.Email,
			Profile:  req.Profile,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionUserUpdated, auditlog.EntityUser, u.ID, nil)
		web.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func changePasswordHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		var req changePasswordRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		if err := svc.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionPasswordChanged, auditlog.EntityUser, claims.UserID, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// requestResetHandler godoc
// @Summary Pedir reset de password
// @Description Siempre responde 202, exista o no el email.
// @Tags users
// @Accept json
// @Param payload body resetRequest true "Email"
// @Success 202
// @Failure 400 {object} web.ErrorBody
// @Router /users/password-reset [post]
func requestResetHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		userID, err := svc.RequestPasswordReset(r.Context(), req.Email)
		if err != nil {
			writeError(w, err)
			return
		}
		if userID != "" {
			audit.RecordAs(r.Context(), userID, auditlog.ActionPasswordReset, auditlog.EntityUser, userID, map[string]any{
				"stage": "requested",
			})
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func confirmResetHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetConfirmRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		userID, err := svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
		if err != nil {
			writeError(w, err)
			return
		}

		audit.RecordAs(r.Context(), userID, auditlog.ActionPasswordReset, auditlog.EntityUser, userID, map[string]any{
			"stage": "completed",
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// adminListUsersHandler godoc
// @Summary Listar usuarios
// @Tags admin
// @Produce json
// @Param role query string false "user | rescue | admin"
// @Param rescue_id query string false "Filtra por rescue"
// @Param q query string false "Busca en username/email"
// @Param limit query int false "1-200"
// @Param offset query int false "Offset"
// @Success 200 {array} userResponse
// @Failure 400 {object} web.ErrorBody
// @Router /admin/users [get]
func adminListUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := ListFilter{
			RescueID: strings.TrimSpace(q.Get("rescue_id")),
			Query:    strings.TrimSpace(q.Get("q")),
		}
		errs := validation.Errors{}
		if raw := strings.TrimSpace(q.Get("role")); raw != "" {
			role, ok := auth.ParseRole(raw)
			if !ok {
				errs.Add("role", "must be one of user, rescue, admin")
			}
			f.Role = role
		}
		limit, err := web.QueryInt(r, "limit", DefaultListLimit)
		if err != nil {
			errs.Add("limit", "must be an integer")
		}
		offset, err := web.QueryInt(r, "offset", 0)
		if err != nil {
			errs.Add("offset", "must be an integer")
		}
		if err := errs.Err(); err != nil {
			writeError(w, err)
			return
		}
		f.Limit, f.Offset = limit, offset

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		web.WriteJSON(w, http.StatusOK, out)
	}
}

func adminUpdateUserHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.GetClaims(r.Context())

		var req adminUpdateUserRequest
		if err := web.DecodeJSON(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		role, ok := auth.ParseRole(req.Role)
		if !ok {
			web.FieldErrors(w, http.StatusBadRequest, "validation failed", map[string]string{
				"role": "must be one of user, rescue, admin",
			})
			return
		}

		u, err := svc.SetRole(r.Context(), actor, chi.URLParam(r, "userID"), role, req.RescueID)
		if err != nil {
			writeError(w, err)
			return
		}

		audit.Record(r.Context(), auditlog.ActionUserUpdated, auditlog.EntityUser, u.ID, map[string]any{
			"role":      string(u.Role),
			"rescue_id": u.RescueID,
		})
		web.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func adminDeleteUserHandler(svc *Service, audit *auditlog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.GetClaims(r.Context())
		id := chi.URLParam(r, "userID")

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), auditlog.ActionUserDeleted, auditlog.EntityUser, id, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, err error) {
	if fields, ok := validation.Fields(err); ok {
		web.FieldErrors(w, http.StatusBadRequest, "validation failed", fields)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		web.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrInvalidToken):
		web.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		web.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrNotFound):
		web.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		web.Error(w, http.StatusConflict, err.Error())
	default:
		web.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func toUserResponse(u User) userResponse {
	profile := u.Profile
	if profile == nil {
		profile = map[string]any{}
	}
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		RescueID:  u.RescueID,
		Profile:   profile,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
