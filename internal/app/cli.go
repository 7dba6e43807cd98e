package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"vinivici/internal/catapi"
	"vinivici/internal/config"
	"vinivici/internal/logger"
	"vinivici/internal/models"
	"vinivici/internal/repositories"
	"vinivici/internal/services"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the CLI. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	var cfgPath string

	serve := func(cmd *cobra.Command, _ []string) error {
		return Run(cmd.Context(), cfgPath)
	}

	root := &cobra.Command{
		Use:           "vinivici",
		Short:         "Discover random cats, banning the breeds, temperaments and origins you have seen enough of",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the yaml config (default $CONFIG_PATH or config/config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE:  serve,
	})
	root.AddCommand(newDiscoverCommand(&cfgPath, nil))

	return root
}

// newDiscoverCommand runs one discovery and prints the candidate as JSON.
// searcher overrides the configured client in tests.
func newDiscoverCommand(cfgPath *string, searcher catapi.Searcher) *cobra.Command {
	var banFlags []string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Fetch one cat that matches none of the given bans",
		Example: `  vinivici discover --ban breedName=Persian --ban "temperament=Lazy"
  vinivici discover --ban origin=Egypt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules := make([]models.BanRule, 0, len(banFlags))
			for _, raw := range banFlags {
				rule, err := parseBanFlag(raw)
				if err != nil {
					return err
				}
				rules = append(rules, rule)
			}

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Server.Env)

			if searcher == nil {
				searcher = catapi.NewClient(catapi.Config{
					BaseURL: cfg.CatAPI.BaseURL,
					APIKey:  cfg.CatAPI.APIKey,
					Timeout: cfg.Timeout(),
				})
			}

			banRepo := repositories.NewBanRepository()
			for _, rule := range rules {
				if !banRepo.Contains(rule) {
					banRepo.Toggle(rule)
				}
			}

			svc := services.NewDiscoveryService(cmd.Context(), searcher, banRepo, services.DiscoveryConfig{
				BatchSize:  cfg.CatAPI.BatchSize,
				MaxRetries: cfg.CatAPI.MaxRetries,
			})

			cand, err := svc.Discover(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cand)
		},
	}
	cmd.Flags().StringArrayVar(&banFlags, "ban", nil, "ban rule as type=value, type is breedName, temperament or origin (repeatable)")

	return cmd
}

func parseBanFlag(raw string) (models.BanRule, error) {
	typ, value, ok := strings.Cut(raw, "=")
	if !ok {
		return models.BanRule{}, fmt.Errorf("invalid --ban %q: expected type=value", raw)
	}
	rule := models.BanRule{
		Type:  models.AttributeType(strings.TrimSpace(typ)),
		Value: strings.TrimSpace(value),
	}
	if !rule.Type.Valid() {
		return models.BanRule{}, fmt.Errorf("invalid --ban %q: unknown attribute type %q", raw, typ)
	}
	if rule.Value == "" {
		return models.BanRule{}, fmt.Errorf("invalid --ban %q: empty value", raw)
	}
	return rule, nil
}
