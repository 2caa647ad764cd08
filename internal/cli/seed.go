package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gestmais/internal/config"
	"gestmais/internal/storage"
)

func (a *app) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load buildings, apartments, payments and projects from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := storage.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			if a.config().DataBackend == config.BackendMemory {
				a.logger.Warn("Seeding the memory backend; data is discarded when the command exits")
			}

			res, _, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer res.Close()

			if err := storage.ApplySeed(cmd.Context(), res.Store, s); err != nil {
				return fmt.Errorf("apply seed: %w", err)
			}

			var apartments, projects int
			for _, b := range s.Buildings {
				apartments += len(b.Apartments)
				projects += len(b.Projects)
			}
			fmt.Fprintf(out(cmd), "Seeded %d buildings, %d apartments, %d projects\n",
				len(s.Buildings), apartments, projects)
			return nil
		},
	}
}
