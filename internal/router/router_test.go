package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-adoption-api/internal/adapters/payments/sandbox"
	"pet-adoption-api/internal/platform/config"
	"pet-adoption-api/internal/router"
)

type identity struct {
	userID   string
	role     string
	rescueID string
}

var (
	anonymous  = identity{}
	admin      = identity{userID: "admin-1", role: "admin"}
	staff      = identity{userID: "staff-1", role: "rescue", rescueID: "rescue-1"}
	otherStaff = identity{userID: "staff-2", role: "rescue", rescueID: "rescue-2"}
	adopter    = identity{userID: "user-1", role: "user"}
	adopter2   = identity{userID: "user-2", role: "user"}
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.HTTP.DevAuth = true
	cfg.Auth.JWTSecret = "router-test-secret"

	ts := httptest.NewServer(router.NewRouter(router.Options{Config: cfg}))
	t.Cleanup(ts.Close)
	return ts
}

func doReq(t *testing.T, baseURL, method, path string, who identity, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set("X-Debug-User-ID", who.userID)
		req.Header.Set("X-Debug-Role", who.role)
		req.Header.Set("X-Debug-Rescue-ID", who.rescueID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func expect(t *testing.T, want int, method, path string, got int, body []byte) {
	t.Helper()
	if got != want {
		t.Fatalf("%s %s: expected %d, got %d body=%s", method, path, want, got, string(body))
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
	return out
}

func createPet(t *testing.T, baseURL string, who identity, payload map[string]any) string {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/api/v1/pets", who, payload)
	expect(t, http.StatusCreated, "POST", "/api/v1/pets", st, body)
	out := decode[struct {
		ID string `json:"id"`
	}](t, body)
	if out.ID == "" {
		t.Fatalf("expected pet id, body=%s", string(body))
	}
	return out.ID
}

type petList struct {
	Items []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Age           int    `json:"age"`
		InternalNotes string `json:"internal_notes"`
		Adopted       bool   `json:"adopted"`
		Promoted      bool   `json:"promoted"`
	} `json:"items"`
	Pagination struct {
		TotalItems  int  `json:"totalItems"`
		TotalPages  int  `json:"totalPages"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"pagination"`
}

func validForm() map[string]any {
	return map[string]any{
		"address":    "742 Evergreen Terrace",
		"household":  map[string]any{"adults": 2, "children": 1, "housing": "house"},
		"experience": "Raised guinea pigs for years",
		"reference":  map[string]any{"name": "Ned", "phone": "555-0100"},
		"consent":    true,
	}
}

func TestHTTP_HealthMetricsAndSwagger(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/health", st, body)

	st, body = doReq(t, ts.URL, "GET", "/metrics", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/metrics", st, body)

	st, body = doReq(t, ts.URL, "GET", "/swagger/doc.json", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/swagger/doc.json", st, body)
}

func TestHTTP_EndToEnd_ListingAndVisibility(t *testing.T) {
	ts := newServer(t)

	createPet(t, ts.URL, staff, map[string]any{
		"name": "Pancho", "species": "capybara", "age": 4, "size": "large",
		"description": "calm and friendly", "internal_notes": "needs a pond",
	})
	createPet(t, ts.URL, staff, map[string]any{
		"name": "Bruno", "species": "Capybara", "age": 2, "size": "extra_large",
	})
	createPet(t, ts.URL, staff, map[string]any{
		"name": "Luna", "species": "guinea pig", "age": 1, "size": "small",
	})

	// Usuario común no puede crear mascotas.
	st, body := doReq(t, ts.URL, "POST", "/api/v1/pets", adopter, map[string]any{
		"name": "X", "species": "capybara", "age": 1, "size": "small",
	})
	expect(t, http.StatusForbidden, "POST", "/api/v1/pets", st, body)

	path := "/api/v1/pets?species=capybara&sort=age&order=asc"
	st, body = doReq(t, ts.URL, "GET", path, anonymous, nil)
	expect(t, http.StatusOK, "GET", path, st, body)
	list := decode[petList](t, body)
	if len(list.Items) != 2 || list.Items[0].Name != "Bruno" || list.Items[1].Name != "Pancho" {
		t.Fatalf("unexpected capybara listing: %s", string(body))
	}
	if list.Items[1].InternalNotes != "" {
		t.Fatalf("internal notes leaked to anonymous viewer")
	}

	// La rescue dueña ve las notas internas.
	st, body = doReq(t, ts.URL, "GET", path, staff, nil)
	expect(t, http.StatusOK, "GET", path, st, body)
	list = decode[petList](t, body)
	if list.Items[1].InternalNotes != "needs a pond" {
		t.Fatalf("expected internal notes for owning rescue, body=%s", string(body))
	}

	// Paginación: 3 mascotas, límite 2.
	path = "/api/v1/pets?limit=2&page=2"
	st, body = doReq(t, ts.URL, "GET", path, anonymous, nil)
	expect(t, http.StatusOK, "GET", path, st, body)
	list = decode[petList](t, body)
	if len(list.Items) != 1 || list.Pagination.TotalItems != 3 || list.Pagination.TotalPages != 2 || list.Pagination.HasNextPage {
		t.Fatalf("unexpected pagination: %s", string(body))
	}

	path = "/api/v1/pets?species=dragon"
	st, body = doReq(t, ts.URL, "GET", path, anonymous, nil)
	expect(t, http.StatusBadRequest, "GET", path, st, body)
}

func TestHTTP_EndToEnd_PromotionsAndCoupons(t *testing.T) {
	ts := newServer(t)

	petID := createPet(t, ts.URL, staff, map[string]any{
		"name": "Pancho", "species": "capybara", "age": 4, "size": "large",
	})

	coupon := map[string]any{
		"code": "free100", "discount_type": "percentage", "value": 100,
		"applies_to": "promotion", "max_uses": 1,
	}
	st, body := doReq(t, ts.URL, "POST", "/api/v1/admin/coupon-codes", staff, coupon)
	expect(t, http.StatusForbidden, "POST", "/api/v1/admin/coupon-codes", st, body)
	st, body = doReq(t, ts.URL, "POST", "/api/v1/admin/coupon-codes", admin, coupon)
	expect(t, http.StatusCreated, "POST", "/api/v1/admin/coupon-codes", st, body)

	st, body = doReq(t, ts.URL, "POST", "/api/v1/promotions/validate-coupon", anonymous, map[string]any{"code": "FREE100"})
	expect(t, http.StatusOK, "POST", "/api/v1/promotions/validate-coupon", st, body)
	ev := decode[struct {
		Valid bool `json:"valid"`
		Free  bool `json:"free"`
	}](t, body)
	if !ev.Valid || !ev.Free {
		t.Fatalf("expected valid free coupon, body=%s", string(body))
	}

	promote := "/api/v1/promotions/pets/" + petID

	// Otra rescue no puede promocionar.
	st, body = doReq(t, ts.URL, "POST", promote, otherStaff, map[string]any{"coupon_code": "FREE100"})
	expect(t, http.StatusForbidden, "POST", promote, st, body)

	// Gratis: sin tarjeta.
	st, body = doReq(t, ts.URL, "POST", promote, staff, map[string]any{"coupon_code": "FREE100"})
	expect(t, http.StatusCreated, "POST", promote, st, body)
	receipt := decode[struct {
		Free          bool   `json:"free"`
		PromotedUntil string `json:"promoted_until"`
	}](t, body)
	if !receipt.Free || receipt.PromotedUntil == "" {
		t.Fatalf("expected free promotion, body=%s", string(body))
	}

	// El cupón tenía un solo uso.
	st, body = doReq(t, ts.URL, "POST", promote, staff, map[string]any{"coupon_code": "FREE100"})
	expect(t, http.StatusUnprocessableEntity, "POST", promote, st, body)

	// Sin cupón hay que pagar: falta la tarjeta.
	st, body = doReq(t, ts.URL, "POST", promote, staff, map[string]any{})
	expect(t, http.StatusBadRequest, "POST", promote, st, body)

	card := map[string]any{"number": "4242 4242 4242 4242", "expiry_month": 12, "expiry_year": 2099, "cvc": "123"}
	st, body = doReq(t, ts.URL, "POST", promote, staff, map[string]any{"card": card})
	expect(t, http.StatusCreated, "POST", promote, st, body)

	card["number"] = sandbox.DeclineCard
	st, body = doReq(t, ts.URL, "POST", promote, staff, map[string]any{"card": card})
	expect(t, http.StatusPaymentRequired, "POST", promote, st, body)

	st, body = doReq(t, ts.URL, "GET", "/api/v1/admin/transactions", admin, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/admin/transactions", st, body)
	txns := decode[[]struct {
		Status  string `json:"status"`
		Gateway string `json:"gateway"`
	}](t, body)
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions (free, paid, declined), got %s", string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/api/v1/admin/logs?actions=PET_PROMOTED", admin, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/admin/logs", st, body)
	logs := decode[[]struct {
		Action  string `json:"action"`
		ActorID string `json:"actor_id"`
	}](t, body)
	if len(logs) != 2 || logs[0].ActorID != staff.userID {
		t.Fatalf("expected 2 promotion audit entries by staff, got %s", string(body))
	}
}

func TestHTTP_EndToEnd_Applications(t *testing.T) {
	ts := newServer(t)

	petID := createPet(t, ts.URL, staff, map[string]any{
		"name": "Luna", "species": "guinea_pig", "age": 1, "size": "small",
	})

	st, body := doReq(t, ts.URL, "POST", "/api/v1/applications", anonymous, map[string]any{"pet_id": petID, "form_data": validForm()})
	expect(t, http.StatusUnauthorized, "POST", "/api/v1/applications", st, body)

	bad := validForm()
	bad["consent"] = false
	st, body = doReq(t, ts.URL, "POST", "/api/v1/applications", adopter, map[string]any{"pet_id": petID, "form_data": bad})
	expect(t, http.StatusBadRequest, "POST", "/api/v1/applications", st, body)

	st, body = doReq(t, ts.URL, "POST", "/api/v1/applications", adopter, map[string]any{"pet_id": petID, "form_data": validForm()})
	expect(t, http.StatusCreated, "POST", "/api/v1/applications", st, body)
	app := decode[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, body)

	st, body = doReq(t, ts.URL, "POST", "/api/v1/applications", adopter, map[string]any{"pet_id": petID, "form_data": validForm()})
	expect(t, http.StatusConflict, "POST", "/api/v1/applications", st, body)

	st, body = doReq(t, ts.URL, "POST", "/api/v1/applications", adopter2, map[string]any{"pet_id": petID, "form_data": validForm()})
	expect(t, http.StatusCreated, "POST", "/api/v1/applications", st, body)
	other := decode[struct {
		ID string `json:"id"`
	}](t, body)

	// Cada usuario ve solo las suyas; la rescue ve ambas.
	st, body = doReq(t, ts.URL, "GET", "/api/v1/applications", adopter, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/applications", st, body)
	if got := decode[[]map[string]any](t, body); len(got) != 1 {
		t.Fatalf("expected 1 application for adopter, got %s", string(body))
	}
	st, body = doReq(t, ts.URL, "GET", "/api/v1/applications", staff, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/applications", st, body)
	if got := decode[[]map[string]any](t, body); len(got) != 2 {
		t.Fatalf("expected 2 applications for rescue, got %s", string(body))
	}

	decide := "/api/v1/applications/" + app.ID + "/status"
	st, body = doReq(t, ts.URL, "PATCH", decide, otherStaff, map[string]any{"status": "approved"})
	expect(t, http.StatusForbidden, "PATCH", decide, st, body)
	st, body = doReq(t, ts.URL, "PATCH", decide, staff, map[string]any{"status": "accepted"})
	expect(t, http.StatusOK, "PATCH", decide, st, body)

	// La otra solicitud quedó rechazada y la mascota adoptada.
	st, body = doReq(t, ts.URL, "GET", "/api/v1/applications/"+other.ID, adopter2, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/applications/"+other.ID, st, body)
	if got := decode[struct {
		Status string `json:"status"`
	}](t, body); got.Status != "rejected" {
		t.Fatalf("expected competing application rejected, got %s", string(body))
	}

	st, body = doReq(t, ts.URL, "GET", "/api/v1/pets", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/pets", st, body)
	if list := decode[petList](t, body); len(list.Items) != 0 {
		t.Fatalf("adopted pet should be hidden from the default listing, got %s", string(body))
	}
}

func TestHTTP_EndToEnd_UsersAndRescueRequests(t *testing.T) {
	ts := newServer(t)

	st, body := doReq(t, ts.URL, "POST", "/api/v1/users/register", anonymous, map[string]any{
		"username": "ana", "email": "ana@example.com", "password": "s3cret-pass",
	})
	expect(t, http.StatusCreated, "POST", "/api/v1/users/register", st, body)
	reg := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, body)
	if reg.Token == "" {
		t.Fatalf("expected token, body=%s", string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/api/v1/users/login", anonymous, map[string]any{"login": "ANA@example.com", "password": "wrong-pass"})
	expect(t, http.StatusUnauthorized, "POST", "/api/v1/users/login", st, body)

	// Bearer token real, sin headers de debug.
	req, _ := http.NewRequest("GET", ts.URL+"/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /users/me: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /users/me with bearer token: expected 200, got %d", resp.StatusCode)
	}

	me := identity{userID: reg.User.ID, role: "user"}
	st, body = doReq(t, ts.URL, "POST", "/api/v1/rescues/requests", me, map[string]any{
		"name": "Capy Haven", "location": "1 River Rd", "contact_email": "hello@capyhaven.org",
		"description": "Capybara sanctuary",
	})
	expect(t, http.StatusCreated, "POST", "/api/v1/rescues/requests", st, body)
	rr := decode[struct {
		ID string `json:"id"`
	}](t, body)

	approve := "/api/v1/admin/rescue-requests/" + rr.ID + "/approve"
	st, body = doReq(t, ts.URL, "POST", approve, me, nil)
	expect(t, http.StatusForbidden, "POST", approve, st, body)
	st, body = doReq(t, ts.URL, "POST", approve, admin, nil)
	expect(t, http.StatusOK, "POST", approve, st, body)

	st, body = doReq(t, ts.URL, "GET", "/api/v1/rescues", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/rescues", st, body)
	if got := decode[[]map[string]any](t, body); len(got) != 1 {
		t.Fatalf("expected the approved rescue in the public list, got %s", string(body))
	}

	// El usuario quedó como staff de la rescue.
	st, body = doReq(t, ts.URL, "GET", "/api/v1/admin/users", admin, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/admin/users", st, body)
	users := decode[[]struct {
		ID       string `json:"id"`
		Role     string `json:"role"`
		RescueID string `json:"rescue_id"`
	}](t, body)
	if len(users) != 1 || users[0].Role != "rescue" || users[0].RescueID == "" {
		t.Fatalf("expected user promoted to rescue staff, got %s", string(body))
	}
}

func TestHTTP_EndToEnd_Recommendations(t *testing.T) {
	ts := newServer(t)

	createPet(t, ts.URL, staff, map[string]any{
		"name": "Pancho", "species": "capybara", "age": 4, "size": "large", "description": "calm",
	})

	st, body := doReq(t, ts.URL, "GET", "/api/v1/recommendations/questions", anonymous, nil)
	expect(t, http.StatusOK, "GET", "/api/v1/recommendations/questions", st, body)

	st, body = doReq(t, ts.URL, "POST", "/api/v1/recommendations", anonymous, map[string]any{
		"experience": "Very experienced", "lifestyle": "Active and outdoorsy",
		"space": "House with a large yard", "species": "Capybara",
	})
	expect(t, http.StatusOK, "POST", "/api/v1/recommendations", st, body)
	out := decode[struct {
		Source  string           `json:"source"`
		Results []map[string]any `json:"results"`
	}](t, body)
	if out.Source != "store" || len(out.Results) == 0 {
		t.Fatalf("expected recommendations from store, got %s", string(body))
	}
}
