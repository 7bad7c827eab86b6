package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/internal/processor"
)

// UpdateCommand holds flags for the update command.
type UpdateCommand struct {
	configPath   string
	verbose      bool
	releaseIndex string
}

// NewUpdateCommand creates the update command, which recomputes derived
// record attributes over the whole store.
func NewUpdateCommand() *cobra.Command {
	uc := &UpdateCommand{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Recompute derived record attributes",
		Long: "Run the recomputation passes over all stored records: user info,\n" +
			"release overrides, review numbers, blueprint mentions, merge dates,\n" +
			"core contributors and review disagreements.",
		Args: cobra.NoArgs,
		RunE: uc.run,
	}

	cmd.Flags().StringVarP(&uc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().BoolVarP(&uc.verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().StringVar(&uc.releaseIndex, "release-index", "",
		"JSON file mapping record primary keys to release names")

	return cmd
}

func (uc *UpdateCommand) run(cmd *cobra.Command, _ []string) error {
	rt, rtErr := openRuntime(uc.configPath, uc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	logger := rt.logger.With(slog.String("run_id", uuid.NewString()))

	releaseIndex, indexErr := uc.loadReleaseIndex()
	if indexErr != nil {
		return indexErr
	}

	proc, procErr := processor.New(rt.store,
		processor.WithLogger(logger),
		processor.WithMetrics(rt.metrics),
		processor.WithCoreWindow(time.Duration(rt.cfg.Update.CoreWindowDays)*24*time.Hour),
	)
	if procErr != nil {
		return procErr
	}

	started := time.Now()

	if err := proc.Update(cmd.Context(), releaseIndex); err != nil {
		return err
	}

	logger.Info("update finished", slog.Duration("elapsed", time.Since(started)))

	return nil
}

func (uc *UpdateCommand) loadReleaseIndex() (map[string]string, error) {
	if uc.releaseIndex == "" {
		return nil, nil
	}

	raw, readErr := os.ReadFile(uc.releaseIndex)
	if readErr != nil {
		return nil, fmt.Errorf("read release index: %w", readErr)
	}

	var index map[string]string
	if decodeErr := json.Unmarshal(raw, &index); decodeErr != nil {
		return nil, fmt.Errorf("decode release index: %w", decodeErr)
	}

	return index, nil
}
