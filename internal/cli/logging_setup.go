package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rshade/tablefold/internal/config"
	"github.com/rshade/tablefold/internal/logging"
)

// logsToFileKey marks whether the command logger writes to a file.
type logsToFileKey struct{}

// logsToFile reports whether setupLogging opened a log file for the command
// running under ctx. A logger that fell back to stderr does not count.
func logsToFile(ctx context.Context) bool {
	v, _ := ctx.Value(logsToFileKey{}).(bool)
	return v
}

// setupLogging configures logging based on config file, environment, and CLI flags.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile && debug {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = context.WithValue(ctx, logsToFileKey{}, result.UsingFile && !result.FallbackUsed)
	ctx = logger.With().Str("trace_id", traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Info().Ctx(ctx).Str("command", cmd.Name()).Str("trace_id", traceID).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
