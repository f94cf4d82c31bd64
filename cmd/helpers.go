package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/inovacc/buildsweep/internal/bitbucket"
	"github.com/inovacc/buildsweep/internal/config"
	"github.com/inovacc/buildsweep/internal/datadog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupLogger creates a configured slog.Logger
func setupLogger(levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// addLoggingFlags adds the common logging flags to a flag set
func addLoggingFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.BoolP("verbose", "v", false, "Shorthand for --log-level=debug")
	flags.Bool("json", false, "Output logs in JSON format")
}

// loggerFromFlags builds a logger from the command's logging flags
func loggerFromFlags(cmd *cobra.Command) *slog.Logger {
	logLevel, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if verbose {
		logLevel = "debug"
	}

	return setupLogger(logLevel, jsonOutput)
}

// newBitbucketClient resolves credentials and builds a Bitbucket client.
// Access tokens win over username/app-password pairs.
func newBitbucketClient(ctx context.Context, flagWorkspace string, logger *slog.Logger) (*bitbucket.Client, error) {
	creds, err := config.ResolveBitbucketCredentials(flagWorkspace)
	if err != nil {
		return nil, err
	}

	logger.Debug("bitbucket credentials resolved",
		slog.String("source", string(creds.Source)),
		slog.String("workspace", creds.Workspace),
	)

	opts := bitbucket.ClientOptions{Logger: logger}

	if creds.AccessToken != "" {
		return bitbucket.NewTokenClient(ctx, creds.Workspace, creds.AccessToken, opts), nil
	}

	return bitbucket.NewClient(creds.Workspace, creds.Username, creds.AppPassword, opts), nil
}

// newDatadogClient resolves credentials and builds a Datadog client.
func newDatadogClient(logger *slog.Logger) (*datadog.Client, error) {
	creds, err := config.ResolveDatadogCredentials()
	if err != nil {
		return nil, err
	}

	logger.Debug("datadog credentials resolved",
		slog.String("source", string(creds.Source)),
		slog.String("site", creds.Site),
	)

	return datadog.NewClient(creds.APIKey, creds.AppKey, datadog.ClientOptions{
		Site:   creds.Site,
		Logger: logger,
	}), nil
}
