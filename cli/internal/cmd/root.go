package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags.
var version = ""

func init() {

	initSharedFlagSet()

	Root.PersistentFlags().String("log-level", "info", "sets the log level.")
	Root.PersistentFlags().String("log-format", "console", "sets the log format.")
	Root.Flags().Bool("version", false, "prints the version and exits.")

	Root.AddCommand(
		Stdio,
		SSE,
		Client,
		Tools,
	)
}

// Root is the root cobra command.
var Root = &cobra.Command{
	Use:              "minimcp",
	Short:            "Minimal MCP tool servers",
	SilenceUsage:     true,
	SilenceErrors:    true,
	TraverseChildren: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		return configureLogger(viper.GetString("log-level"), viper.GetString("log-format"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("version") {
			fmt.Println("minimcp", Version())
			os.Exit(0)
		}
		return cmd.Usage()
	},
}

// configureLogger installs the default slog logger.
// Logs always go to stderr as stdout belongs to
// the stdio transport.
func configureLogger(level string, format string) error {

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level '%s': %w", level, err)
	}

	var h slog.Handler

	switch strings.ToLower(format) {
	case "console":
		h = tint.NewHandler(os.Stderr, &tint.Options{Level: lvl, TimeFormat: "15:04:05.000"})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		return fmt.Errorf("invalid --log-format '%s': must be console or json", format)
	}

	slog.SetDefault(slog.New(h))

	return nil
}

// Version returns the version of the binary.
func Version() string {

	if version != "" {
		return version
	}

	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}

	return "dev"
}
