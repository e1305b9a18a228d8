package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/config"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/upload"
)

var (
	withTelemetry bool
	errInvalid    = errors.New("upload is not valid")
)

type report struct {
	Validation model.ValidationResult `json:"validation"`
	Metadata   model.UploadMetadata   `json:"metadata"`
	Telemetry  []model.TelemetryPoint `json:"telemetry,omitempty"`
}

func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "upload file",
		Short:        "validate and repair a user supplied telemetry file (CSV or JSON)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.GetFromContext(cmd.Context())
			unit, err := units.Parse(config.SpeedUnit)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("could not read %s: %w", args[0], err)
			}
			svc := upload.NewService(
				upload.WithSpeedUnit(unit),
				upload.WithLogger(logger.Named("upload")))
			res := svc.Process(filepath.Base(args[0]), string(data))
			logger.Info("upload processed",
				log.Bool("valid", res.Validation.Valid),
				log.Int("records", res.Validation.RecordCount),
				log.Strings("missing", res.Validation.MissingFields))
			return write(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&withTelemetry, "with-telemetry", false, "include the cleaned telemetry")
	return cmd
}

func write(out io.Writer, res model.CleanedTelemetry) error {
	r := report{Validation: res.Validation, Metadata: res.Metadata}
	if withTelemetry {
		r.Telemetry = res.Telemetry
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}
	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return err
	}
	if !res.Validation.Valid {
		return errInvalid
	}
	return nil
}
