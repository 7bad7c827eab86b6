package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// SnapshotCommand holds flags for the snapshot command group.
type SnapshotCommand struct {
	configPath string
	verbose    bool
}

// NewSnapshotCommand creates the snapshot command with save and restore
// subcommands. Snapshots are gob streams compressed with lz4 holding the
// full store contents.
func NewSnapshotCommand() *cobra.Command {
	sc := &SnapshotCommand{}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save or restore a store snapshot",
	}

	cmd.PersistentFlags().StringVarP(&sc.configPath, "config", "c", "", "Config file path")
	cmd.PersistentFlags().BoolVarP(&sc.verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "save <file>",
		Short: "Write the store contents to a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE:  sc.save,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <file>",
		Short: "Load a snapshot file into the store",
		Args:  cobra.ExactArgs(1),
		RunE:  sc.restore,
	})

	return cmd
}

func (sc *SnapshotCommand) save(_ *cobra.Command, args []string) error {
	rt, rtErr := openRuntime(sc.configPath, sc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	if err := storage.SaveSnapshot(rt.store, args[0]); err != nil {
		return err
	}

	rt.logger.Info("snapshot saved", slog.String("path", args[0]))

	return nil
}

func (sc *SnapshotCommand) restore(_ *cobra.Command, args []string) error {
	rt, rtErr := openRuntime(sc.configPath, sc.verbose)
	if rtErr != nil {
		return rtErr
	}
	defer rt.Close()

	file, openErr := os.Open(args[0])
	if openErr != nil {
		return fmt.Errorf("open snapshot: %w", openErr)
	}
	defer file.Close()

	snapshot, readErr := storage.ReadSnapshot(file)
	if readErr != nil {
		return readErr
	}

	if err := snapshot.Restore(rt.store); err != nil {
		return err
	}

	rt.logger.Info("snapshot restored",
		slog.String("path", args[0]),
		slog.Int("records", len(snapshot.Records)),
		slog.Int("users", len(snapshot.Users)))

	return nil
}
