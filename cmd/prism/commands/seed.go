package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/internal/seed"
)

// SeedCommand holds flags for the seed command.
type SeedCommand struct {
	configPath string
	verbose    bool
	dataPath   string
	reposPath  string
}

// NewSeedCommand creates the seed command, which loads reference data
// into the runtime store.
func NewSeedCommand() *cobra.Command {
	sc := &SeedCommand{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data into the store",
		Long: "Validate a default-data file and load company domains, the release\n" +
			"calendar and the repository registry into the runtime store. A repos\n" +
			"YAML file, when given, replaces the registry from the data file.",
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVarP(&sc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().StringVarP(&sc.dataPath, "data", "d", "", "Default data JSON file")
	cmd.Flags().StringVar(&sc.reposPath, "repos", "", "Repository registry YAML file")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func (sc *SeedCommand) run(_ *cobra.Command, _ []string) error {
	rt, rtErr := openRuntime(sc.configPath, sc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	data, dataErr := seed.LoadDefaultData(sc.dataPath)
	if dataErr != nil {
		return dataErr
	}

	if sc.reposPath != "" {
		repos, reposErr := seed.LoadReposYAML(sc.reposPath)
		if reposErr != nil {
			return reposErr
		}

		data.Repos = repos
	}

	if err := data.Apply(rt.store); err != nil {
		return err
	}

	rt.logger.Info("reference data loaded",
		slog.Int("companies", len(data.Companies)),
		slog.Int("releases", len(data.Releases)),
		slog.Int("repos", len(data.Repos)))

	return nil
}
