package cmd

import (
	"fmt"
	"io"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
	"github.com/ninjaexa/ninjaexa/internal/observability"
	"github.com/ninjaexa/ninjaexa/internal/output"
)

var (
	rateLimitReset  bool
	rateLimitTest   bool
	rateLimitOutput string
	rateLimitOut    string
)

var rateLimitCmd = &cobra.Command{
	Use:     "rate-limit",
	Aliases: []string{"ratelimit"},
	Short:   "Show, test or reset the persisted rate limiter state",
	Long: `Show the rate limiter status (default), reset its state, or run a
single check without counting a request.

--test exits 0 when a request would be allowed and 1 when it would be refused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if a == nil {
			return fmt.Errorf("rate limiter not initialized")
		}
		if rateLimitReset && rateLimitTest {
			return fmt.Errorf("--reset and --test are mutually exclusive")
		}

		sink, err := openSink(rateLimitOut)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		switch {
		case rateLimitReset:
			if err := a.limiter.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset rate limiter state: %w", err)
			}
			_, err := fmt.Fprintln(sink.writer, "[OK] Rate limiter state reset")
			return err

		case rateLimitTest:
			decision := a.limiter.Check(cmd.Context())
			logPersistence("check", decision.Persistence)
			if err := writeTestDecision(sink.writer, decision); err != nil {
				return err
			}
			if !decision.Allowed {
				return &quietExit{code: foundry.ExitFailure}
			}
			return nil

		default:
			format, err := output.ParseFormat(rateLimitOutput)
			if err != nil {
				return err
			}
			status := a.limiter.Status(cmd.Context())
			if status.LoadErr != nil {
				observability.CLILogger.Debug("Rate state unreadable, showing fresh state", zap.Error(status.LoadErr))
			}
			return output.RenderStatus(sink.writer, format, status)
		}
	},
}

func writeTestDecision(w io.Writer, decision ratelimit.Decision) error {
	message := decision.Message
	if message == "" {
		message = "(none)"
	}
	_, err := fmt.Fprintf(w, "Allowed: %t\nDelay: %.1fs\nMessage: %s\n",
		decision.Allowed, decision.Delay.Seconds(), message)
	return err
}

func logPersistence(op string, p ratelimit.Persistence) {
	if err := p.Err(); err != nil && observability.CLILogger != nil {
		observability.CLILogger.Debug("Rate state persistence failed", zap.String("op", op), zap.Error(err))
	}
}

func init() {
	rateLimitCmd.Flags().BoolVar(&rateLimitReset, "reset", false, "Delete all persisted rate limiter state")
	rateLimitCmd.Flags().BoolVar(&rateLimitTest, "test", false, "Run one check without recording a request")
	rateLimitCmd.Flags().Bool("status", true, "Show current status (default)")
	rateLimitCmd.Flags().StringVar(&rateLimitOutput, "output-format", string(output.FormatTable), "Output format: table|json|yaml|markdown")
	rateLimitCmd.Flags().StringVar(&rateLimitOut, "out", "", "Write output to a file (default stdout)")
	rootCmd.AddCommand(rateLimitCmd)
}
