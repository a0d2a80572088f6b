package pets

import (
	"strings"
	"time"
)

// Species define las especies soportadas.
// @Enum capybara, guinea_pig, rock_cavy, chinchilla
type Species string

const (
	SpeciesCapybara   Species = "capybara"
	SpeciesGuineaPig  Species = "guinea_pig"
	SpeciesRockCavy   Species = "rock_cavy"
	SpeciesChinchilla Species = "chinchilla"
)

var allSpecies = []Species{SpeciesCapybara, SpeciesGuineaPig, SpeciesRockCavy, SpeciesChinchilla}

// ParseSpecies acepta "Guinea Pig", "guinea-pig" y "guinea_pig".
func ParseSpecies(s string) (Species, bool) {
	v := Species(normalizeEnum(s))
	for _, sp := range allSpecies {
		if v == sp {
			return sp, true
		}
	}
	return "", false
}

// Size define el tamaño de la mascota.
// @Enum small, medium, large, extra_large
type Size string

const (
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeExtraLarge Size = "extra_large"
)

var allSizes = []Size{SizeSmall, SizeMedium, SizeLarge, SizeExtraLarge}

func ParseSize(s string) (Size, bool) {
	v := Size(normalizeEnum(s))
	for _, sz := range allSizes {
		if v == sz {
			return sz, true
		}
	}
	return "", false
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

const (
	MaxAge         = 30
	MaxGallerySize = 10
	MaxNameLen     = 100
	MaxTextLen     = 5000
)

// Pet representa una mascota publicada por una rescue.
type Pet struct {
	ID        string
	RefNumber int64 // correlativo de inserción; desempata los ordenamientos

	Name        string
	Species     Species
	Age         int
	Size        Size
	Description string

	ImageURL string
	Gallery  []string

	RescueID string

	Adopted       bool
	Promoted      bool
	PromotedUntil *time.Time

	// InternalNotes solo es visible para admin y para la rescue dueña (ver CanSeeInternalNotes).
	InternalNotes string

	DateListed time.Time
	UpdatedAt  time.Time
	Version    int
}
