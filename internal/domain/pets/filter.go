package pets

import (
	"fmt"
	"math"
	"strings"

	"pet-adoption-api/internal/platform/validation"
	"pet-adoption-api/internal/ports/auth"
)

// Centinelas de edad: minAge<=0 y maxAge==20 significan "sin cota".
// Un maxAge mayor a 20 es una cota real (las mascotas llegan a MaxAge).
const (
	AgeMinSentinel = 0
	AgeMaxSentinel = 20
)

type SortField string

const (
	SortDateListed SortField = "dateListed"
	SortAge        SortField = "age"
	SortName       SortField = "name"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter es el filtro tal como llega del query string (sin validar).
type Filter struct {
	Species     []string
	Sizes       []string
	MinAge      *int // nil = sin cota
	MaxAge      *int
	Search      string
	SortBy      string
	SortOrder   string
	RescueID    string
	ShowAdopted bool
	Page        int
	Limit       int
}

// Query es el filtro validado y normalizado que reciben los repositorios.
// Todas las condiciones activas se combinan con AND.
type Query struct {
	Species        []Species
	Sizes          []Size
	MinAge         *int
	MaxAge         *int
	Search         string
	SortBy         SortField
	Desc           bool
	RescueID       string
	IncludeAdopted bool
	Page           int
	Limit          int
}

// Offset satura en math.MaxInt: una página enorme queda fuera de rango
// (página vacía) en vez de desbordar.
func (q Query) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Normalize valida el filtro y resuelve showAdopted según el viewer:
// solo admin o la rescue dueña (filtrando por su propio rescueId) pueden ver adoptadas.
func (f Filter) Normalize(viewer auth.Claims, pageSize, maxPageSize int) (Query, error) {
	errs := validation.Errors{}
	q := Query{
		RescueID: strings.TrimSpace(f.RescueID),
		Search:   strings.TrimSpace(f.Search),
		SortBy:   SortDateListed,
		Desc:     true,
		Page:     f.Page,
		Limit:    f.Limit,
	}

	seenSp := map[Species]struct{}{}
	for _, raw := range f.Species {
		sp, ok := ParseSpecies(raw)
		if !ok {
			errs.Add("species", fmt.Sprintf("unknown species %q", raw))
			continue
		}
		if _, dup := seenSp[sp]; dup {
			continue
		}
		seenSp[sp] = struct{}{}
		q.Species = append(q.Species, sp)
	}

	seenSz := map[Size]struct{}{}
	for _, raw := range f.Sizes {
		sz, ok := ParseSize(raw)
		if !ok {
			errs.Add("size", fmt.Sprintf("unknown size %q", raw))
			continue
		}
		if _, dup := seenSz[sz]; dup {
			continue
		}
		seenSz[sz] = struct{}{}
		q.Sizes = append(q.Sizes, sz)
	}

	if f.MinAge != nil {
		switch {
		case *f.MinAge < 0:
			errs.Add("minAge", "must be >= 0")
		case *f.MinAge > AgeMinSentinel:
			v := *f.MinAge
			q.MinAge = &v
		}
	}
	if f.MaxAge != nil {
		switch {
		case *f.MaxAge < 0:
			errs.Add("maxAge", "must be >= 0")
		case *f.MaxAge != AgeMaxSentinel:
			v := *f.MaxAge
			q.MaxAge = &v
		}
	}
	if q.MinAge != nil && q.MaxAge != nil && *q.MinAge > *q.MaxAge {
		errs.Add("minAge", "must be <= maxAge")
	}

	switch strings.ToLower(strings.TrimSpace(f.SortBy)) {
	case "", "datelisted", "date_listed":
		q.SortBy = SortDateListed
	case "age":
		q.SortBy = SortAge
	case "name":
		q.SortBy = SortName
	default:
		errs.Add("sort", "must be one of dateListed, age, name")
	}

	switch strings.ToLower(strings.TrimSpace(f.SortOrder)) {
	case "", "desc":
		q.Desc = true
	case "asc":
		q.Desc = false
	default:
		errs.Add("order", "must be asc or desc")
	}

	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 0 {
		errs.Add("page", "must be >= 1")
	}
	if q.Limit <= 0 {
		q.Limit = pageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}

	if err := errs.Err(); err != nil {
		return Query{}, err
	}

	if f.ShowAdopted {
		q.IncludeAdopted = viewer.IsAdmin() || (q.RescueID != "" && viewer.IsRescueStaff(q.RescueID))
	}
	return q, nil
}

// Matches aplica la conjunción de filtros en memoria.
// El repo Postgres construye el WHERE equivalente.
func (q Query) Matches(p Pet) bool {
	if !q.IncludeAdopted && p.Adopted {
		return false
	}
	if q.RescueID != "" && p.RescueID != q.RescueID {
		return false
	}
	if len(q.Species) > 0 && !containsSpecies(q.Species, p.Species) {
		return false
	}
	if len(q.Sizes) > 0 && !containsSize(q.Sizes, p.Size) {
		return false
	}
	if q.MinAge != nil && p.Age < *q.MinAge {
		return false
	}
	if q.MaxAge != nil && p.Age > *q.MaxAge {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// Less ordena por el campo pedido y desempata por RefNumber ascendente
// (orden de inserción), así el orden es estable entre páginas.
func (q Query) Less(a, b Pet) bool {
	var cmp int
	switch q.SortBy {
	case SortAge:
		cmp = compareInt(a.Age, b.Age)
	case SortName:
		cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	default:
		cmp = a.DateListed.Compare(b.DateListed)
	}
	if cmp != 0 {
		if q.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.RefNumber < b.RefNumber
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func containsSpecies(list []Species, v Species) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsSize(list []Size, v Size) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Pagination acompaña cada página de resultados.
type Pagination struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalItems      int  `json:"totalItems"`
	Limit           int  `json:"limit"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalItems:      total,
		Limit:           limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

type Page struct {
	Items      []Pet
	Pagination Pagination
}
