package command

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"turnline/queue-gateway/internal/config"
	"turnline/queue-gateway/internal/constant"
	"turnline/queue-gateway/internal/domain"
)

type NextTurnCommand struct {
	Logger *log.Logger
}

func (cmd NextTurnCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "next-turn",
		Short: "serve the reservation at the head of the queue",
		Run: func(c *cobra.Command, _ []string) {
			b, err := newBackend(ctx, cfg, cmd.Logger)
			if err != nil {
				cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "next-turn"))
				return
			}
			defer b.Close()

			id, err := b.service.AdvanceTurn(ctx)
			if errors.Is(err, constant.EmptyQueueErr) {
				fmt.Fprintln(c.OutOrStdout(), "queue is empty")
				return
			}
			if err != nil {
				cmd.Logger.WithContext(ctx).Error(errors.Wrap(err, "next-turn"))
				return
			}
			fmt.Fprintf(c.OutOrStdout(), "served %s\n", id)
		},
	}
}

type ClearCommand struct {
	Logger *log.Logger
}

func (cmd ClearCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var yes bool

	c := &cobra.Command{
		Use:   "clear",
		Short: "drop every reservation in the queue",
		Run: func(c *cobra.Command, _ []string) {
			if !yes {
				fmt.Fprintln(c.ErrOrStderr(), "refusing to clear the queue without --yes")
				return
			}

			b, err := newBackend(ctx, cfg, cmd.Logger)
			if err != nil {
				cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "clear"))
				return
			}
			defer b.Close()

			n, err := b.service.Clear(ctx)
			if err != nil {
				cmd.Logger.WithContext(ctx).Error(errors.Wrap(err, "clear"))
				return
			}
			fmt.Fprintf(c.OutOrStdout(), "deleted %d reservations\n", n)
		},
	}
	c.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return c
}

type ListCommand struct {
	Logger *log.Logger
}

func (cmd ListCommand) Command(ctx context.Context, cfg *config.Config) *cobra.Command {
	var (
		desc  bool
		limit int
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "print the queue in slot order",
		Run: func(c *cobra.Command, _ []string) {
			b, err := newBackend(ctx, cfg, cmd.Logger)
			if err != nil {
				cmd.Logger.WithContext(ctx).Fatal(errors.Wrap(err, "list"))
				return
			}
			defer b.Close()

			all, total, err := b.service.List(ctx, domain.ListOptions{Reverse: desc, Limit: limit})
			if err != nil {
				cmd.Logger.WithContext(ctx).Error(errors.Wrap(err, "list"))
				return
			}

			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tSLOT")
			for _, r := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("15:04:05"), r.SlotTime.Format("15:04:05"))
			}
			_ = w.Flush()
			fmt.Fprintf(c.OutOrStdout(), "%d of %d reservations\n", len(all), total)
		},
	}
	c.Flags().BoolVar(&desc, "desc", false, "most recent first")
	c.Flags().IntVar(&limit, "limit", 0, "print at most this many reservations (0 for all)")
	return c
}
