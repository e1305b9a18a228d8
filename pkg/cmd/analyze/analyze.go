package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/predict"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/config"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/processing"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/publish"
	natspub "github.com/mpapenbr/racetelemetry-analyzer/pkg/publish/nats"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

type files struct {
	telemetry   string
	lapTimes    string
	weather     string
	bestLaps    string
	processed   string
	idealLap    string
	predictions string
	upload      string
}

var (
	input         files
	output        string
	vehicle       int
	withTelemetry bool
	analysisCfg   = config.DefaultAnalysis()
)

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "analyze the telemetry of a session",
		Long: `Parses the telemetry of a session and prints a report with lap times,
corners, insights, a prediction of the next lap and the optimal lap as JSON.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var v *int
			if cmd.Flags().Changed("vehicle") {
				v = &vehicle
			}
			return analyze(cmd.Context(), cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().StringVar(&input.telemetry, "telemetry", "", "telemetry file (long or wide format)")
	cmd.Flags().StringVar(&input.lapTimes, "lap-times", "", "lap timing file")
	cmd.Flags().StringVar(&input.weather, "weather", "", "weather file")
	cmd.Flags().StringVar(&input.bestLaps, "best-laps", "", "best 10 laps by driver file")
	cmd.Flags().StringVar(&input.processed, "processed", "",
		"pre-processed telemetry file (used instead of --telemetry)")
	cmd.Flags().StringVar(&input.idealLap, "ideal-lap", "", "externally computed ideal lap")
	cmd.Flags().StringVar(&input.upload, "upload", "",
		"user provided telemetry (CSV or JSON), repaired before the analysis")
	cmd.Flags().StringVar(&input.predictions, "predictions", "", "externally computed lap predictions (JSON)")
	cmd.Flags().IntVar(&vehicle, "vehicle", 0, "restrict the analysis to this vehicle number")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&withTelemetry, "with-telemetry", false, "include the telemetry by lap in the report")
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "", "publish the report to this NATS server")
	cmd.Flags().StringVar(&config.NatsSubject, "nats-subject", "rta.report", "subject for published reports")
	cmd.Flags().StringVar(&config.NatsTimeout, "nats-timeout", "5s", "timeout for the NATS connection")
	cmd.Flags().DurationVar(&analysisCfg.MaxLapTime, "max-lap-time", analysisCfg.MaxLapTime,
		"lap times at or above this value are ignored")
	cmd.Flags().IntVar(&analysisCfg.RecentLaps, "recent-laps", analysisCfg.RecentLaps,
		"number of laps used for the prediction")
	cmd.Flags().Float64Var(&analysisCfg.CornerLatG, "corner-lat-g", analysisCfg.CornerLatG,
		"lateral g starting a corner")
	cmd.Flags().Float64Var(&analysisCfg.BrakeActive, "brake-active", analysisCfg.BrakeActive,
		"brake pressure considered as braking")
	return cmd
}

func analyze(ctx context.Context, out io.Writer, v *int) error {
	logger := log.GetFromContext(ctx)
	unit, err := units.Parse(config.SpeedUnit)
	if err != nil {
		return err
	}
	in, err := readInputs(v)
	if err != nil {
		return err
	}
	p := processing.NewProcessor(
		processing.WithAnalysis(analysisCfg),
		processing.WithSpeedUnit(unit),
		processing.WithLogger(logger.Named("processing")))
	session, err := p.Process(ctx, in)
	if err != nil {
		return fmt.Errorf("could not analyze session: %w", err)
	}
	logger.Info("session analyzed",
		log.Ints("laps", session.Laps()),
		log.Int("corners", len(session.Corners())),
		log.Int("insights", len(session.Insights())))

	var opts []processing.ReportOption
	if withTelemetry {
		opts = append(opts, processing.WithTelemetry())
	}
	report := session.Report(opts...)
	if err := writeReport(out, report); err != nil {
		return err
	}
	if config.NatsURL != "" {
		return publishReport(ctx, logger, report)
	}
	return nil
}

func readInputs(v *int) (processing.Inputs, error) {
	ret := processing.Inputs{Vehicle: v}
	targets := []struct {
		path string
		dest *string
	}{
		{input.telemetry, &ret.Telemetry},
		{input.lapTimes, &ret.LapTimes},
		{input.weather, &ret.Weather},
		{input.bestLaps, &ret.BestLaps},
		{input.processed, &ret.Processed},
		{input.idealLap, &ret.IdealLap},
		{input.upload, &ret.Upload},
	}
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		data, err := os.ReadFile(t.path)
		if err != nil {
			return ret, fmt.Errorf("could not read %s: %w", t.path, err)
		}
		*t.dest = string(data)
	}
	if input.upload != "" {
		ret.UploadName = filepath.Base(input.upload)
	}
	if input.predictions != "" {
		f, err := os.Open(input.predictions)
		if err != nil {
			return ret, fmt.Errorf("could not open %s: %w", input.predictions, err)
		}
		defer f.Close()
		src, err := predict.LoadExternal(f)
		if err != nil {
			return ret, fmt.Errorf("could not load %s: %w", input.predictions, err)
		}
		ret.External = src
	}
	return ret, nil
}

func writeReport(out io.Writer, report processing.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}
	if output == "" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("could not write %s: %w", output, err)
	}
	return nil
}

func publishReport(ctx context.Context, logger *log.Logger, report processing.Report) error {
	timeout, err := time.ParseDuration(config.NatsTimeout)
	if err != nil {
		logger.Warn("Invalid duration value. Setting default 5s", log.ErrorField(err))
		timeout = 5 * time.Second
	}
	conn, err := natspub.Connect(config.NatsURL, timeout)
	if err != nil {
		return err
	}
	pub := natspub.NewNatsPublisher(conn, natspub.WithLogger(logger.Named("nats")))
	//nolint:errcheck // connection is closed anyway
	defer pub.Close()

	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := publish.JSON(pubCtx, pub, config.NatsSubject, report); err != nil {
		return err
	}
	logger.Info("report published",
		log.String("subject", config.NatsSubject),
		log.String("id", report.ID))
	return nil
}
