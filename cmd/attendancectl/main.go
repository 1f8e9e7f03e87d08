// attendancectl is the operator tool for the attendance store: migrations,
// directory maintenance, cell edits and reports from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/events"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/storage"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

// app is what every subcommand works against
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	stores  *storage.Stores
	service *service.AttendanceService
	rmq     *messaging.RabbitMQ
}

func (a *app) close() {
	if a.rmq != nil {
		_ = a.rmq.Close()
	}
	if a.stores != nil {
		_ = a.stores.Close(context.Background())
	}
}

func openApp(ctx context.Context, logLevel string, publish bool) (*app, error) {
	cfg, err := config.LoadWithValidation("attendance-service")
	if err != nil {
		return nil, err
	}

	log := logger.New("attendancectl", cfg.Server.Environment).SetLevel(logLevel)

	rules, err := service.RulesFromConfig(&cfg.Attendance)
	if err != nil {
		return nil, err
	}

	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, stores: stores}

	var publisher service.EventPublisher = events.NopPublisher{}
	if publish && cfg.RabbitMQ.Enabled {
		a.rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		p, err := events.NewAttendanceEventPublisher(a.rmq, log)
		if err != nil {
			a.close()
			return nil, err
		}
		publisher = p
	}

	a.service = service.NewAttendanceService(stores.Entries, stores.Directory, publisher, rules, log)
	return a, nil
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Operate the attendance store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	// open is resolved lazily so --help works without a database
	open := func(cmd *cobra.Command, publish bool) (*app, error) {
		return openApp(cmd.Context(), logLevel, publish)
	}

	root.AddCommand(
		newMigrateCmd(open),
		newWeekCmd(open),
		newSetCmd(open),
		newGroupCmd(open),
		newReportCmd(open),
		newAgentCmd(open),
		newClientCmd(open),
	)
	return root
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "attendancectl: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
