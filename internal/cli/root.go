package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/telemetry"
)

// defaultAPIURL — адрес API по умолчанию.
const defaultAPIURL = "http://localhost:8080"

// NewRootCmd собирает дерево команд langweave.
func NewRootCmd(version string) *cobra.Command {
	var apiURL string
	var userID string
	var jsonOutput bool
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "langweave",
		Short:         "Langweave CLI — run and manage LLM flows",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("LANGWEAVE_API_URL", defaultAPIURL), "API server URL")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", os.Getenv("LANGWEAVE_USER_ID"), "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write execution logs to stderr")

	clientFn := func() *Client { return NewClient(apiURL, userID) }
	outputFn := func() *Output { return NewOutput(jsonOutput) }
	depsFn := func() LocalDeps {
		logger := slog.New(slog.DiscardHandler)
		if verbose {
			logger = telemetry.SetupLoggerTo(os.Stderr)
		}
		return LocalDeps{Registry: components.DefaultRegistry(), Logger: logger}
	}

	rootCmd.AddCommand(
		NewRunLocalCmd(depsFn, outputFn),
		NewValidateCmd(depsFn, outputFn),
		NewComponentsCmd(depsFn, outputFn),
		NewFlowCmd(clientFn, outputFn),
		NewExecutionCmd(clientFn, outputFn),
		NewScheduleCmd(clientFn, outputFn),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
