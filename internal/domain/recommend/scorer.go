package recommend

import (
	"sort"
	"strings"

	"pet-adoption-api/internal/domain/pets"
)

const (
	TopN = 3

	recommendBonus    = 10
	backfillRecommend = 5
	recommendKeyword  = "recommend"
)

// coreSpecies es lo que devuelve la etapa de elegibilidad para cualquier respuesta.
var coreSpecies = []pets.Species{pets.SpeciesCapybara, pets.SpeciesGuineaPig, pets.SpeciesRockCavy}

type category struct {
	points   int
	keywords []string
}

// Recommend es una función pura: mismo input, mismo output.
// Devuelve min(TopN, elegibles) resultados ordenados por puntaje desc; los empates
// respetan el orden original de pool.
func Recommend(pool []pets.Pet, a Answers) []Result {
	eligible := eligibleSpecies(a)

	type indexed struct {
		idx int
		pet pets.Pet
	}

	var candidates []indexed
	for i, p := range pool {
		if p.Adopted || !containsSpecies(eligible, p.Species) {
			continue
		}
		candidates = append(candidates, indexed{idx: i, pet: p})
	}

	preferred, hasPreference := preferredSpecies(a.Species)
	cats := categoriesFor(a)

	type scored struct {
		idx int
		res Result
	}

	var picked []scored
	chosen := make(map[int]bool)

	for _, c := range candidates {
		if hasPreference && c.pet.Species != preferred {
			continue
		}
		picked = append(picked, scored{idx: c.idx, res: Result{Pet: c.pet, Score: score(c.pet.Description, cats)}})
	}

	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].res.Score > picked[j].res.Score
	})
	if len(picked) > TopN {
		picked = picked[:TopN]
	}
	for _, p := range picked {
		chosen[p.idx] = true
	}

	// Relleno: primero las que dicen "recommend" (5), después el resto (0), en orden original.
	if len(picked) < TopN {
		for _, pass := range []bool{true, false} {
			for _, c := range candidates {
				if len(picked) >= TopN {
					break
				}
				if chosen[c.idx] || mentionsRecommend(c.pet.Description) != pass {
					continue
				}
				s := 0
				if pass {
					s = backfillRecommend
				}
				picked = append(picked, scored{idx: c.idx, res: Result{Pet: c.pet, Score: s, Backfilled: true}})
				chosen[c.idx] = true
			}
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].res.Score != picked[j].res.Score {
			return picked[i].res.Score > picked[j].res.Score
		}
		return picked[i].idx < picked[j].idx
	})

	out := make([]Result, 0, len(picked))
	for _, p := range picked {
		out = append(out, p.res)
	}
	return out
}

// eligibleSpecies mapea las respuestas a las especies admitidas.
// Todas las ramas (experiencia, estilo de vida, espacio) terminan en las tres
// especies core, así que una chinchilla nunca se recomienda (la preferencia
// "chinchilla" deja el filtro vacío y todo sale del relleno).
// TODO: revisar con producto si chinchilla debe ser elegible para usuarios experimentados.
func eligibleSpecies(_ Answers) []pets.Species {
	return coreSpecies
}

func preferredSpecies(answer string) (pets.Species, bool) {
	s := normalize(answer)
	switch {
	case strings.Contains(s, "capybara"):
		return pets.SpeciesCapybara, true
	case strings.Contains(s, "guinea"):
		return pets.SpeciesGuineaPig, true
	case strings.Contains(s, "rock cavy"):
		return pets.SpeciesRockCavy, true
	case strings.Contains(s, "chinchilla"):
		return pets.SpeciesChinchilla, true
	default:
		return "", false
	}
}

func categoriesFor(a Answers) []category {
	var cats []category

	switch experienceLevel(a.Experience) {
	case "beginner":
		cats = append(cats, category{points: 3, keywords: []string{"gentle", "calm", "easy", "friendly"}})
	case "experienced":
		cats = append(cats, category{points: 2, keywords: []string{"special needs", "shy", "energetic", "challenging"}})
	default:
		cats = append(cats, category{points: 1, keywords: []string{"friendly", "curious"}})
	}

	lifestyle := normalize(a.Lifestyle)
	switch {
	case strings.Contains(lifestyle, "busy"):
		cats = append(cats, category{points: 3, keywords: []string{"independent", "low maintenance", "quiet"}})
	case strings.Contains(lifestyle, "active"):
		cats = append(cats, category{points: 3, keywords: []string{"playful", "active", "energetic"}})
	case strings.Contains(lifestyle, "relaxed"), strings.Contains(lifestyle, "home"):
		cats = append(cats, category{points: 2, keywords: []string{"cuddly", "affectionate", "social"}})
	}

	space := normalize(a.Space)
	switch {
	case strings.Contains(space, "apartment"), strings.Contains(space, "small"):
		cats = append(cats, category{points: 2, keywords: []string{"small", "compact", "indoor"}})
	case strings.Contains(space, "yard"), strings.Contains(space, "large"):
		cats = append(cats, category{points: 3, keywords: []string{"outdoor", "large", "space"}})
	case strings.Contains(space, "house"):
		cats = append(cats, category{points: 1, keywords: []string{"indoor", "outdoor"}})
	}

	return cats
}

func experienceLevel(answer string) string {
	s := normalize(answer)
	switch {
	case strings.Contains(s, "first"), strings.Contains(s, "beginner"), strings.Contains(s, "none"):
		return "beginner"
	case strings.Contains(s, "very"), strings.Contains(s, "experienced"), strings.Contains(s, "expert"):
		return "experienced"
	default:
		return "some"
	}
}

func score(description string, cats []category) int {
	desc := strings.ToLower(description)
	total := 0
	if strings.Contains(desc, recommendKeyword) {
		total += recommendBonus
	}
	for _, c := range cats {
		for _, kw := range c.keywords {
			if strings.Contains(desc, kw) {
				total += c.points
				break
			}
		}
	}
	return total
}

func mentionsRecommend(description string) bool {
	return strings.Contains(strings.ToLower(description), recommendKeyword)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ReplaceAll(s, "-", " ")
}

func containsSpecies(list []pets.Species, v pets.Species) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
