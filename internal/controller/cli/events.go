package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreyxaxa/Image-Admin-Panel/internal/usecase/gallery"
	"github.com/spf13/cobra"
)

func newEventsCmd(d Deps) *cobra.Command {
	var (
		fromBeginning bool
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow finished resize workflows published to Kafka",
		Long: `Print workflow events as the panel publishes them. Events are read
through the KAFKA_CONSUMER_GROUP consumer group, so each event is shown to
one member of the group only. Stops on interrupt or after --limit events.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if d.OpenEvents == nil {
				return errors.New("KAFKA_BROKERS is not set")
			}

			ctx := cmd.Context()

			rx, err := d.OpenEvents(ctx, fromBeginning)
			if err != nil {
				return fmt.Errorf("connect to kafka: %w", err)
			}
			defer rx.Close()

			out := cmd.OutOrStdout()
			for n := 0; limit <= 0 || n < limit; n++ {
				ev, err := rx.ReadEvent(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}

					return err
				}

				finished := "-"
				if ev.FinishedAt != nil {
					finished = gallery.FormatDate(*ev.FinishedAt, true)
				}

				fmt.Fprintf(out, "%s  %s  %dx%d  %s", finished, ev.Filename, ev.Width, ev.Height, ev.State)
				if ev.Message != "" {
					fmt.Fprintf(out, "  %s", ev.Message)
				}
				fmt.Fprintln(out)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&fromBeginning, "from-beginning", false, "start at the oldest retained event on first use of the group")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many events (0 means follow)")

	return cmd
}
