package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"powerpulse/internal/analytics"
	"powerpulse/internal/dataset"
	"powerpulse/internal/services"
	"powerpulse/internal/storage"
)

var (
	summaryMonth int
	summaryJSON  bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the monthly report",
	Long:  `Computes the dashboard report of one month and prints it as text or JSON.`,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryMonth, "month", 0, "Month to report (default: first month in the data)")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the full report as JSON")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	handle := dataset.New(storage.NewLoader(cfg.Storage(), logger), dataset.WithLogger(logger))
	defer handle.Close()
	dashboard := services.NewDashboardService(handle, nil, nil, logger)

	sel := services.Selection{Month: summaryMonth}
	if summaryMonth == 0 {
		if sel, _, err = dashboard.Resolve(ctx, 0); err != nil {
			return err
		}
	}
	report, err := dashboard.Report(ctx, sel)
	if err != nil {
		return err
	}

	if summaryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(r analytics.Report) {
	fmt.Printf("\nMonthly Summary: Month %d (%s readings)\n", r.Month, humanize.Comma(int64(r.Summary.Count)))
	fmt.Println("----------------------------------------")
	fmt.Printf("Active Power:    %s kW\n", r.Summary.ActivePower.Format(2))
	fmt.Printf("Reactive Power:  %s kW\n", r.Summary.ReactivePower.Format(2))
	fmt.Printf("Avg Voltage:     %s V\n", r.Summary.VoltageMean.Format(2))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nWeekday vs Weekend\tmean kW")
	for _, c := range r.WeekdayWeekend {
		fmt.Fprintf(w, "%s\t%s\n", c.Label, c.Value.Format(3))
	}
	fmt.Fprintln(w, "\nEnergy by Appliance\tW-h")
	for _, c := range r.EnergySplit {
		fmt.Fprintf(w, "%s\t%s\n", c.Label, c.Value.Format(1))
	}
	fmt.Fprintln(w, "\nTop 5 Usage Points\tday\thour\tkW")
	for i, t := range r.Top {
		fmt.Fprintf(w, "#%d\t%d\t%d\t%s\n", i+1, t.Day, t.Hour, t.GlobalActivePower.Format(3))
	}
	fmt.Fprintf(w, "\nAnomalies\t%d outliers above %s or below %s kW\n",
		len(r.Box.Outliers), r.Box.UpperWhisker.Format(3), r.Box.LowerWhisker.Format(3))
	_ = w.Flush()
}
