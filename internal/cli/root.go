package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/packsmith/packsmith/internal/observability"
	"github.com/packsmith/packsmith/internal/observability/logging"
	otelobs "github.com/packsmith/packsmith/internal/observability/otel"
	"github.com/packsmith/packsmith/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "packsmith",
	Short: "Keep Bedrock add-on manifests moving in lockstep",
	Long: `packsmith discovers the resource and behavior pack manifests of a
Bedrock add-on, advances their versions together, and keeps the
behavior pack's pinned dependency on its resource pack current.`,
	Version:           version.BuildVersion(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupContext,
	PersistentPostRun: teardownContext,
}

var (
	logFormatFlag string
	logLevelFlag  string
	logOutputFlag string
	quietFlag     bool
	otelFlag      bool
)

// Set by setupContext so cleanup can reach them even when a command
// fails and cobra skips the post-run hooks.
var (
	activeLogger logging.Logger
	activeHandle *otelobs.Handle
)

func init() {
	def := logging.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logFormatFlag, "log-format", def.Format, "Log format (pretty|jsonl)")
	pf.StringVar(&logLevelFlag, "log-level", def.Level, "Log level (debug|info|warn|error)")
	pf.StringVar(&logOutputFlag, "log-output", def.Output, "Log destination (stderr|stdout|file path)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	pf.BoolVar(&otelFlag, "otel", otelobs.EnvEnabled(), "Export traces over OTLP (also PACKSMITH_OTEL=1)")

	rootCmd.AddCommand(GetScanCmd())
	rootCmd.AddCommand(GetBumpCmd())
	rootCmd.AddCommand(GetDiffCmd())
	rootCmd.AddCommand(GetCheckCmd())
	rootCmd.AddCommand(GetWatchCmd())
	rootCmd.AddCommand(GetInitCmd())
	rootCmd.AddCommand(GetExportCmd())
	rootCmd.AddCommand(GetVersionCmd())
}

// Execute runs the CLI under a signal-aware context so watch mode and
// long scans stop cleanly on SIGINT.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupContext(cmd *cobra.Command, _ []string) error {
	cfg := logging.Config{Format: logFormatFlag, Level: logLevelFlag, Output: logOutputFlag}
	if quietFlag {
		cfg.Level = logging.LevelError
	}
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	activeLogger = log

	ctx := logging.WithLogger(cmd.Context(), log)
	ctx = observability.WithOpID(ctx)

	if otelFlag {
		otelCfg, err := otelobs.ConfigFromEnv()
		if err != nil {
			return fmt.Errorf("configure tracing: %w", err)
		}
		otelCfg.Enabled = true
		h, err := otelobs.Init(ctx, otelCfg)
		if err != nil {
			return fmt.Errorf("initialize tracing: %w", err)
		}
		activeHandle = h
		ctx = otelobs.WithHandle(ctx, h)
	}

	cmd.SetContext(ctx)
	return nil
}

func teardownContext(*cobra.Command, []string) {
	teardown()
}

// teardown flushes traces and closes the logger. Safe to call twice:
// cobra skips post-run hooks when a command errors, so Execute calls
// it as well.
func teardown() {
	if activeHandle != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := activeHandle.Shutdown(ctx); err != nil && activeLogger != nil {
			activeLogger.Warn("cli", "trace shutdown failed", "error", err.Error())
		}
		cancel()
		activeHandle = nil
	}
	if activeLogger != nil {
		activeLogger.Close()
		activeLogger = nil
	}
}

// startSpan opens a span for one command invocation when tracing is
// enabled. finish records err and ends the span.
func startSpan(ctx context.Context, command string) (context.Context, func(err error)) {
	h := otelobs.From(ctx)
	if h == nil {
		return ctx, func(error) {}
	}
	ctx, span := h.Tracer.Start(ctx, "packsmith."+command,
		trace.WithAttributes(
			attribute.String("packsmith.op_id", observability.OpID(ctx)),
			attribute.String("packsmith.command", command),
		))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed")
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}

// rootArg returns the positional workspace root, "." when omitted.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
