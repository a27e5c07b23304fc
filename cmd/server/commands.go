package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ashureev/recovery-coach/internal/breathing"
	"github.com/ashureev/recovery-coach/internal/health"
	"github.com/ashureev/recovery-coach/internal/store"
)

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List the built-in breathing exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := breathing.DefaultCatalog()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCYCLES\tDURATION\tPATTERN")
			for _, id := range catalog.IDs() {
				ex := catalog.Get(id)
				parts := make([]string, 0, ex.StepCount())
				for _, step := range ex.Steps() {
					parts = append(parts, fmt.Sprintf("%s %ds", step.Action, step.Duration))
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", ex.ID(), ex.Name(), ex.Cycles(), ex.TotalDuration(), strings.Join(parts, " / "))
			}
			return tw.Flush()
		},
	}
}

func newBreatheCmd() *cobra.Command {
	var cycles int
	var speed float64

	cmd := &cobra.Command{
		Use:   "breathe [exercise]",
		Short: "Run a breathing exercise in the terminal",
		Long:  "Runs the session timer against the wall clock and prints each instruction as it changes. Unknown ids fall back to the calm exercise.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := breathing.DefaultCatalog()
			id := catalog.DefaultID()
			if len(args) == 1 {
				id = args[0]
			}
			ex, ok := catalog.Lookup(id)
			if !ok {
				ex = catalog.Get(catalog.DefaultID())
				fmt.Fprintf(cmd.ErrOrStderr(), "unknown exercise %q, using %s\n", id, ex.ID())
			}
			if cmd.Flags().Changed("cycles") {
				var err error
				if ex, err = ex.WithCycles(cycles); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBreathe(ctx, cmd, ex, breathing.ScaledClock(speed))
		},
	}
	cmd.Flags().IntVar(&cycles, "cycles", 0, "override the number of cycles")
	cmd.Flags().Float64Var(&speed, "speed", 1, "run the clock this many times faster")
	_ = cmd.Flags().MarkHidden("speed")
	return cmd
}

func runBreathe(ctx context.Context, cmd *cobra.Command, ex *breathing.Exercise, clock breathing.Clock) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", ex.Name(), ex.Description())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan struct{})
	runner := breathing.NewRunner(breathing.NewSession(ex), nil, clock, func(st breathing.Status, ev breathing.Event) {
		switch ev {
		case breathing.EventStarted, breathing.EventStepAdvanced:
			fmt.Fprintf(out, "[cycle %d/%d] %s (%ds)\n", st.Cycle+1, st.Cycles, st.Instruction, st.Remaining)
		case breathing.EventCompleted:
			fmt.Fprintln(out, "Exercise completed. Notice how your body feels.")
			close(finished)
		}
	})

	runErr := make(chan error, 1)
	go func() { runErr <- runner.Run(ctx) }()

	if _, err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start exercise: %w", err)
	}

	select {
	case <-finished:
		cancel()
		<-runErr
		return nil
	case <-ctx.Done():
		<-runErr
		fmt.Fprintln(out, "Stopped.")
		return nil
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history <sessionId>",
		Short: "Print stored conversation turns for a session, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = os.Getenv("DATABASE_PATH")
			}
			if dbPath == "" {
				dbPath = "./data/conversations.sqlite"
			}
			repo, err := store.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = repo.Close() }()

			turns, err := repo.ConversationHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(turns) == 0 {
				fmt.Fprintf(out, "No conversation turns for session %s\n", args[0])
				return nil
			}
			for _, turn := range turns {
				fmt.Fprintf(out, "--- %s (%s)\n", turn.Timestamp.Format(time.RFC3339), turn.ID)
				fmt.Fprintf(out, "user: %s\n", turn.UserMessage)
				fmt.Fprintf(out, "coach: %s\n", turn.AssistantMessage)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultHistoryLimit, "maximum number of turns")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (defaults to DATABASE_PATH)")
	return cmd
}

var errNotServing = errors.New("service is not serving")

func newHealthcheckCmd() *cobra.Command {
	var addr, service string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Query the gRPC health endpoint of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = os.Getenv("GRPC_HEALTH_ADDR")
			}
			if addr == "" {
				return errors.New("no address: pass --addr or set GRPC_HEALTH_ADDR")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status, err := health.Probe(ctx, addr, service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if status != healthpb.HealthCheckResponse_SERVING {
				return errNotServing
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC health address (defaults to GRPC_HEALTH_ADDR)")
	cmd.Flags().StringVar(&service, "service", "", "service name; empty checks overall health")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "probe timeout")
	return cmd
}
