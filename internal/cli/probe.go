package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/kafkaguard/internal/control"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe every configured broker once",
	Run:   runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewGuard(cfg)
	if err != nil {
		slog.Error("Failed to initialize Guard", "error", err)
		os.Exit(1)
	}

	results := app.ProbeOnce(context.Background())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BROKER\tSTATUS\tATTEMPTS\tLATENCY\tAPI KEYS\tERROR")

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "%s\tDOWN\t%d\t%s\t-\t%v\n", res.Broker, res.Attempts, res.Latency, res.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\tUP\t%d\t%s\t%d\t%s\n",
			res.Broker, res.Attempts, res.Latency, len(res.Versions.APIKeys), res.Versions.ErrorCode())
	}
	_ = w.Flush()

	if failed > 0 {
		os.Exit(1)
	}
}
