package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"powerpulse/internal/core"
	"powerpulse/internal/model"
	"powerpulse/internal/services"
)

var (
	predictFeatures = core.DefaultFeatures()
	predictJSON     bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict Global Active Power for one set of readings",
	Long:  `Evaluates the configured model artifact. Unset flags keep the dashboard form defaults.`,
	RunE:  runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.Float64Var(&predictFeatures.GlobalReactivePower, "reactive-power", predictFeatures.GlobalReactivePower, "Reactive power (kW)")
	f.Float64Var(&predictFeatures.Voltage, "voltage", predictFeatures.Voltage, "Voltage (V)")
	f.Float64Var(&predictFeatures.GlobalIntensity, "intensity", predictFeatures.GlobalIntensity, "Global intensity (A)")
	f.Float64Var(&predictFeatures.SubMetering1, "kitchen", predictFeatures.SubMetering1, "Kitchen meter (W-h)")
	f.Float64Var(&predictFeatures.SubMetering2, "laundry", predictFeatures.SubMetering2, "Laundry meter (W-h)")
	f.Float64Var(&predictFeatures.SubMetering3, "climate", predictFeatures.SubMetering3, "AC/heater meter (W-h)")
	f.IntVar(&predictFeatures.Hour, "hour", predictFeatures.Hour, "Hour of day (0-23)")
	f.IntVar(&predictFeatures.Weekday, "weekday", predictFeatures.Weekday, "Weekday (0=Mon, 6=Sun)")
	f.IntVar(&predictFeatures.IsWeekend, "weekend", predictFeatures.IsWeekend, "Weekend flag (0 or 1)")
	f.BoolVar(&predictJSON, "json", false, "Print the prediction as JSON")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	svc := services.NewPredictionService(model.NewPredictor(cfg.ModelPath, logger), nil, nil, logger)
	defer svc.Close()

	p, err := svc.Predict(cmd.Context(), predictFeatures)
	if err != nil {
		return err
	}
	if predictJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	fmt.Printf("Predicted Global Active Power: %s\n", p.Format())
	return nil
}
