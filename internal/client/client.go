// Package client es el cliente HTTP de la API /api/v1 que usa adoptctl.
// El token vive en el Client; no hay estado global de sesión.
package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pet-adoption-api/internal/domain/coupons"
	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/platform/httpclient"
)

const (
	DefaultBaseURL = "http://localhost:8080/api/v1"

	// PoolLimit es el tamaño del pool que se trae para recomendar localmente.
	PoolLimit = 50
)

var ErrNotAuthenticated = errors.New("client: not authenticated")

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	http  *httpclient.Client
	token string
}

func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	hc, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	c := &Client{http: hc}
	c.SetToken(cfg.Token)
	return c, nil
}

// SetToken reemplaza el bearer token (vacío => requests anónimos).
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
	if c.token == "" {
		c.http.Headers = nil
		return
	}
	c.http.Headers = map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *Client) Token() string { return c.token }

// Pet es la vista pública que devuelve GET /pets.
type Pet struct {
	ID            string       `json:"id"`
	RefNumber     int64        `json:"ref_number"`
	Name          string       `json:"name"`
	Species       pets.Species `json:"species"`
	Age           int          `json:"age"`
	Size          pets.Size    `json:"size"`
	Description   string       `json:"description"`
	ImageURL      string       `json:"image_url,omitempty"`
	Gallery       []string     `json:"gallery"`
	RescueID      string       `json:"rescue_id"`
	Adopted       bool         `json:"adopted"`
	Promoted      bool         `json:"promoted"`
	PromotedUntil *time.Time   `json:"promoted_until,omitempty"`
	DateListed    time.Time    `json:"date_listed"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Version       int          `json:"version"`
}

func (p Pet) ToDomain() pets.Pet {
	return pets.Pet{
		ID:            p.ID,
		RefNumber:     p.RefNumber,
		Name:          p.Name,
		Species:       p.Species,
		Age:           p.Age,
		Size:          p.Size,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Gallery:       p.Gallery,
		RescueID:      p.RescueID,
		Adopted:       p.Adopted,
		Promoted:      p.Promoted,
		PromotedUntil: p.PromotedUntil,
		DateListed:    p.DateListed,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

type PetPage struct {
	Items      []Pet           `json:"items"`
	Pagination pets.Pagination `json:"pagination"`
}

// ListPetsParams se traduce a los query params de GET /pets.
// Los campos vacíos no se envían.
type ListPetsParams struct {
	Species []string
	Sizes   []string
	MinAge  *int
	MaxAge  *int
	Search  string
	Sort    string
	Order   string
	Page    int
	Limit   int
}

func (p ListPetsParams) values() url.Values {
	v := url.Values{}
	if len(p.Species) > 0 {
		v.Set("species", strings.Join(p.Species, ","))
	}
	if len(p.Sizes) > 0 {
		v.Set("size", strings.Join(p.Sizes, ","))
	}
	if p.MinAge != nil {
		v.Set("minAge", strconv.Itoa(*p.MinAge))
	}
	if p.MaxAge != nil {
		v.Set("maxAge", strconv.Itoa(*p.MaxAge))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		v.Set("search", s)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Order != "" {
		v.Set("order", p.Order)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

func (c *Client) ListPets(ctx context.Context, params ListPetsParams) (PetPage, error) {
	path := "/pets"
	if q := params.values().Encode(); q != "" {
		path += "?" + q
	}
	var out PetPage
	if err := c.http.DoJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return PetPage{}, err
	}
	return out, nil
}

// RecommendationPool trae hasta PoolLimit mascotas disponibles para el scorer local.
func (c *Client) RecommendationPool(ctx context.Context) ([]pets.Pet, error) {
	page, err := c.ListPets(ctx, ListPetsParams{Limit: PoolLimit})
	if err != nil {
		return nil, err
	}
	pool := make([]pets.Pet, 0, len(page.Items))
	for _, p := range page.Items {
		pool = append(pool, p.ToDomain())
	}
	return pool, nil
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// Login autentica y deja el token puesto en el Client.
func (c *Client) Login(ctx context.Context, login, password string) (LoginResult, error) {
	in := map[string]string{"login": login, "password": password}
	var out LoginResult
	if err := c.http.DoJSON(ctx, http.MethodPost, "/users/login", nil, in, &out); err != nil {
		return LoginResult{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// ValidateCoupon consulta el evaluador del servidor. baseFeeCents solo aplica a rescue_fee.
func (c *Client) ValidateCoupon(ctx context.Context, code string, appliesTo coupons.AppliesTo, baseFeeCents *int64) (coupons.Evaluation, error) {
	in := struct {
		Code         string `json:"code"`
		AppliesTo    string `json:"applies_to,omitempty"`
		BaseFeeCents *int64 `json:"base_fee_cents,omitempty"`
	}{Code: code, AppliesTo: string(appliesTo), BaseFeeCents: baseFeeCents}

	var out coupons.Evaluation
	if err := c.http.DoJSON(ctx, http.MethodPost, "/promotions/validate-coupon", nil, in, &out); err != nil {
		return coupons.Evaluation{}, err
	}
	return out, nil
}

// Me devuelve el usuario del token actual.
func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	if c.token == "" {
		return nil, ErrNotAuthenticated
	}
	var out map[string]any
	if err := c.http.DoJSON(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
