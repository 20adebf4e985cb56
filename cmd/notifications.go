package main

import (
	"context"
	"time"

	"github.com/desertthunder/streamsavvy/internal/tasks"
	"github.com/urfave/cli/v3"
)

// NotificationsList prints the feed, newest first.
func (r *Runner) NotificationsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	items := r.notifications.List()

	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Notifications")
	if len(items) == 0 {
		return r.writePlain("You're all caught up.\n")
	}
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "●"
		}
		r.writePlain("%s %s  %s\n", mark, n.Time().Format(time.DateTime), n.Title)
		if n.Message != "" {
			r.writePlain("    %s\n", n.Message)
		}
	}
	return r.writePlain("\n%d unread\n", r.notifications.UnreadCount())
}

// NotificationsRead marks every notification read.
func (r *Runner) NotificationsRead(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	r.notifications.MarkAllRead()
	return r.writePlain("✓ All notifications marked read\n")
}

// NotificationsClear empties the feed.
func (r *Runner) NotificationsClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	r.notifications.Clear()
	return r.writePlain("✓ Notifications cleared\n")
}

// NotificationsTrending checks trending titles once.
func (r *Runner) NotificationsTrending(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}
	added, err := r.notifier.Notify(ctx)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return r.writePlain("No new trending titles.\n")
	}
	for _, n := range added {
		r.writePlain("● %s\n", n.Message)
	}
	return nil
}

// NotificationsPoll checks trending titles on an interval until interrupted.
func (r *Runner) NotificationsPoll(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 10)
	done := r.drainProgress(progressCh)
	err := r.engine.PollTrending(ctx, progressCh, cmd.Duration("interval"))
	close(progressCh)
	<-done
	return err
}
