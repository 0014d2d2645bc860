package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/kafkaguard/internal/control"
)

var (
	failuresBroker string
	failuresLimit  int
)

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List requests that ended in a terminal error",
	Run:   runFailures,
}

var failuresRemoveCmd = &cobra.Command{
	Use:   "rm [id...]",
	Short: "Remove failure records",
	Args:  cobra.MinimumNArgs(1),
	Run:   runFailuresRemove,
}

func init() {
	failuresCmd.Flags().StringVar(&failuresBroker, "broker", "", "only list failures of this broker")
	failuresCmd.Flags().IntVar(&failuresLimit, "limit", 50, "maximum number of records (0 = all)")
	failuresCmd.AddCommand(failuresRemoveCmd)
	rootCmd.AddCommand(failuresCmd)
}

func runFailures(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	backend, err := control.OpenJournal(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to open journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = backend.Close()
	}()
	journal := backend.Journal

	records, err := journal.List(context.Background(), failuresBroker, failuresLimit)
	if err != nil {
		slog.Error("Failed to list failures", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tBROKER\tAPI KEY\tERROR\tRETRIABLE\tATTEMPTS\tFAILED AT")

	for _, fr := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d v%d\t%s (%d)\t%t\t%d\t%s\n",
			fr.ID, fr.Broker, fr.APIKey, fr.APIVersion, fr.ErrorName, fr.ErrorCode,
			fr.Retriable, fr.Attempts, fr.FailedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

func runFailuresRemove(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	backend, err := control.OpenJournal(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to open journal", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = backend.Close()
	}()
	journal := backend.Journal

	ctx := context.Background()
	for _, id := range args {
		if err := journal.Remove(ctx, id); err != nil {
			slog.Error("Failed to remove failure", "id", id, "error", err)
			continue
		}
		slog.Info("Removed failure", "id", id)
	}
}
