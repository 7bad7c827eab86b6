package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/processor"
	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// ProcessCommand holds flags for the process command.
type ProcessCommand struct {
	configPath string
	verbose    bool
}

// NewProcessCommand creates the process command. It reads raw event streams
// from the given files, or stdin when none are given, normalizes them into
// records and persists the result.
func NewProcessCommand() *cobra.Command {
	pc := &ProcessCommand{}

	cmd := &cobra.Command{
		Use:   "process [file...]",
		Short: "Normalize raw event streams into records",
		Long: "Read JSON event streams, normalize them into records and persist\n" +
			"them in the runtime store. Reads stdin when no files are given.",
		RunE: pc.run,
	}

	cmd.Flags().StringVarP(&pc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().BoolVarP(&pc.verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func (pc *ProcessCommand) run(cmd *cobra.Command, args []string) error {
	rt, rtErr := openRuntime(pc.configPath, pc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	logger := rt.logger.With(slog.String("run_id", uuid.NewString()))

	proc, procErr := processor.New(rt.store,
		processor.WithLogger(logger),
		processor.WithMetrics(rt.metrics),
		processor.WithCoreWindow(time.Duration(rt.cfg.Update.CoreWindowDays)*24*time.Hour),
	)
	if procErr != nil {
		return procErr
	}

	started := time.Now()
	total := 0

	ingest := func(name string, reader io.Reader) error {
		count := 0

		counted := func(yield func(*record.Record, error) bool) {
			for rec, err := range proc.Process(cmd.Context(), events.Decode(reader)) {
				if err == nil {
					count++
				}

				if !yield(rec, err) {
					return
				}
			}
		}

		if err := rt.store.SetRecords(storage.RecordSeq(counted)); err != nil {
			return fmt.Errorf("process %s: %w", name, err)
		}

		logger.Info("input processed",
			slog.String("input", name),
			slog.Int("records", count))

		total += count

		return nil
	}

	if len(args) == 0 {
		if err := ingest("stdin", cmd.InOrStdin()); err != nil {
			return err
		}
	}

	for _, path := range args {
		file, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("open input: %w", openErr)
		}

		ingestErr := ingest(path, file)
		_ = file.Close()

		if ingestErr != nil {
			return ingestErr
		}
	}

	logger.Info("processing finished",
		slog.String("records", humanize.Comma(int64(total))),
		slog.Duration("elapsed", time.Since(started)))

	return nil
}
