package recommend

import "pet-adoption-api/internal/domain/pets"

// Answers son las respuestas al cuestionario, en el orden en que se preguntan.
// Son texto libre (la opción elegida); el scorer las interpreta por substring.
type Answers struct {
	Experience string `json:"experience"`
	Lifestyle  string `json:"lifestyle"`
	Space      string `json:"space"`
	Species    string `json:"species"`
}

type Question struct {
	Key     string   `json:"key"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Questions devuelve el cuestionario fijo (lo usan el CLI y GET /recommendations/questions).
func Questions() []Question {
	return []Question{
		{
			Key:     "experience",
			Prompt:  "How much experience do you have with small animals?",
			Options: []string{"First-time owner", "Some experience", "Very experienced"},
		},
		{
			Key:     "lifestyle",
			Prompt:  "How would you describe your lifestyle?",
			Options: []string{"Busy, often away", "Active and outdoorsy", "Relaxed, mostly at home"},
		},
		{
			Key:     "space",
			Prompt:  "How much space do you have?",
			Options: []string{"Small apartment", "House", "House with a large yard"},
		},
		{
			Key:     "species",
			Prompt:  "Do you have a species preference?",
			Options: []string{"No preference", "Capybara", "Guinea pig", "Rock cavy", "Chinchilla"},
		},
	}
}

// Result es una mascota recomendada con su puntaje.
// Backfilled indica que entró por el relleno y no por el filtro de preferencia.
type Result struct {
	Pet        pets.Pet `json:"-"`
	Score      int      `json:"score"`
	Backfilled bool     `json:"backfilled"`
}
