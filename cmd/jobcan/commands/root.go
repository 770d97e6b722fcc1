package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"jobcan-cli/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	flags      flagValues

	// populated by rootCmd's PersistentPreRunE
	config Config
	tel    telemetry.Telemetry
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file. Defaults to the closest jobcan.json5 from the working directory up.")
	rootCmd.PersistentFlags().StringVarP(&flags.email, "email", "e", "", "Account email. Defaults to $JOBCAN_EMAIL if not set.")
	rootCmd.PersistentFlags().StringVarP(&flags.password, "password", "p", "", "Account password. Defaults to $JOBCAN_PASSWORD if not set.")
	rootCmd.PersistentFlags().StringVar(&flags.dumpHttp, "dump-http", "", "Write every http exchange (credentials redacted) into this directory.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

var rootCmd = &cobra.Command{
	Use:           "jobcan",
	Short:         "jobcan stamps attendance on Jobcan from the command line.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		loaded, path, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if path != "" {
			slog.Debug("using config", "path", path)
		}
		config = loaded

		tel, err = telemetry.Setup(cmd.Context(), "jobcan-cli", config.Otlp)
		if err != nil {
			slog.Warn("failed to setup telemetry export", "err", err)
		}
		return nil
	},
}

func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := tel.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}

// ExecuteContext runs the cli and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	shutdownTelemetry()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
