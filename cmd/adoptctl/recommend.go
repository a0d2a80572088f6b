package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pet-adoption-api/internal/domain/pets"
	"pet-adoption-api/internal/domain/recommend"
)

func newRecommendCmd(opts *globalOptions) *cobra.Command {
	var (
		answers     recommend.Answers
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recomienda mascotas a partir del cuestionario (scoring local)",
		Long: `Trae hasta 50 mascotas disponibles de GET /pets y las puntúa localmente.
Si la API no responde, recomienda sobre un pool vacío.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interactive {
				a, err := askQuestions(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
				answers = a
			}

			c, err := opts.client()
			if err != nil {
				return err
			}

			var pool []pets.Pet
			pool, err = c.RecommendationPool(cmd.Context())
			if err != nil {
				opts.log.Warn("could not load pets, recommending from an empty pool", map[string]any{"error": err})
				pool = nil
			}

			printResults(cmd.OutOrStdout(), recommend.Recommend(pool, answers))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&answers.Experience, "experience", "", "experiencia con animales pequeños")
	f.StringVar(&answers.Lifestyle, "lifestyle", "", "estilo de vida")
	f.StringVar(&answers.Space, "space", "", "espacio disponible")
	f.StringVar(&answers.Species, "species", "", "preferencia de especie")
	f.BoolVarP(&interactive, "interactive", "i", false, "pregunta el cuestionario por stdin")

	cmd.AddCommand(&cobra.Command{
		Use:   "questions",
		Short: "Muestra el cuestionario",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, q := range recommend.Questions() {
				fmt.Fprintf(out, "%s: %s\n", q.Key, q.Prompt)
				for i, o := range q.Options {
					fmt.Fprintf(out, "  %d) %s\n", i+1, o)
				}
			}
		},
	})
	return cmd
}

// askQuestions acepta el número de opción o texto libre.
func askQuestions(in io.Reader, out io.Writer) (recommend.Answers, error) {
	sc := bufio.NewScanner(in)
	picked := make(map[string]string)

	for _, q := range recommend.Questions() {
		fmt.Fprintln(out, q.Prompt)
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o)
		}
		fmt.Fprint(out, "> ")

		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return recommend.Answers{}, err
			}
			break
		}
		line := strings.TrimSpace(sc.Text())
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(q.Options) {
			line = q.Options[n-1]
		}
		picked[q.Key] = line
	}

	return recommend.Answers{
		Experience: picked["experience"],
		Lifestyle:  picked["lifestyle"],
		Space:      picked["space"],
		Species:    picked["species"],
	}, nil
}

func printResults(out io.Writer, results []recommend.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No recommendations available right now.")
		return
	}
	for i, r := range results {
		note := ""
		if r.Backfilled {
			note = " (backfill)"
		}
		fmt.Fprintf(out, "%d. %s - %s, %d years, %s - score %d%s\n",
			i+1, r.Pet.Name, r.Pet.Species, r.Pet.Age, r.Pet.Size, r.Score, note)
	}
}
