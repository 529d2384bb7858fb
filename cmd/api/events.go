package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/pkg/messaging/redis"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect appointment events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print appointment events from Redis as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			broker, err := redis.NewRedisBroker(ctx, cfg.RedisBrokerConfig(), l.Zerolog())
			if err != nil {
				return err
			}
			defer broker.Close()

			messages, err := broker.Subscribe(ctx, cfg.Redis.Channel)
			if err != nil {
				return err
			}
			return tail(ctx, messages, cmd)
		},
	})
	return cmd
}

func tail(ctx context.Context, messages <-chan []byte, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event model.AppointmentEvent
			if err := json.Unmarshal(msg, &event); err != nil {
				fmt.Fprintf(out, "unparseable event: %s\n", msg)
				continue
			}
			apt := event.Appointment
			fmt.Fprintf(out, "%s %-24s appointment=%d doctor=%d patient=%d %s %s %s\n",
				event.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
				event.Type, apt.ID, apt.DoctorID, apt.PatientID, apt.Date, apt.Time, apt.Status)
		}
	}
}
