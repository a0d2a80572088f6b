// adoptctl es el cliente de línea de comandos de la API de adopción.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pet-adoption-api/internal/client"
	"pet-adoption-api/internal/platform/config"
	"pet-adoption-api/internal/platform/logger"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd(&globalOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	apiURL     string
	token      string
	logLevel   string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "adoptctl",
		Short:         "Cliente de la API de adopción de mascotas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", os.Getenv("ADOPT_CONFIG"), "ruta a config.yaml (opcional)")
	pf.StringVar(&opts.apiURL, "api", "", "base URL de la API (default client.api_base_url)")
	pf.StringVar(&opts.token, "token", "", "bearer token (default client.token)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn, error")

	cmd.AddCommand(
		newPetsCmd(opts),
		newRecommendCmd(opts),
		newCouponCmd(opts),
		newLoginCmd(opts),
		newMigrateCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Imprime la versión",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "adoptctl %s\n", version)
			},
		},
	)
	return cmd
}

func (o *globalOptions) init() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg
	if o.log == nil {
		o.log = logger.New(logger.Options{
			Level:  logger.ParseLevel(o.logLevel),
			Format: logger.ParseFormat(cfg.Log.Format),
		})
	}
	return nil
}

// client arma el cliente con flags > config (ADOPT_CLIENT_*).
func (o *globalOptions) client() (*client.Client, error) {
	base, token := o.apiURL, o.token
	if base == "" {
		base = o.cfg.Client.APIBaseURL
	}
	if token == "" {
		token = o.cfg.Client.Token
	}
	timeout := o.cfg.Client.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return client.New(client.Config{BaseURL: base, Token: token, Timeout: timeout})
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
