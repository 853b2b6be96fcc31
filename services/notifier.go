package services

import (
	"context"
	"log/slog"
	"time"

	"go-usermanager/utils"
)

// Notification says the store reached Revision because of Action on a user.
type Notification struct {
	Action   string
	UserID   int64
	UserName string
	Revision uint64
	Size     int
	At       time.Time
}

// Notifier fans committed changes out to a background worker that publishes
// them as "store changed" records.
type Notifier struct {
	log  *utils.Logger
	ch   chan Notification
	errs ErrorSink

	// last revision published; only the worker goroutine touches it
	last uint64
}

func NewNotifier(log *utils.Logger, buffer int) *Notifier {
	return &Notifier{
		log: log,
		ch:  make(chan Notification, buffer),
	}
}

func (n *Notifier) BindErrorSink(errs ErrorSink) {
	n.errs = errs
}

// Notify never blocks the caller: when the buffer is full the notification is
// dropped and ErrNotificationDropped goes to the error sink.
func (n *Notifier) Notify(action string, c Change) {
	msg := Notification{
		Action:   action,
		UserID:   c.User.ID,
		UserName: c.User.Name,
		Revision: c.Revision,
		Size:     c.Size,
		At:       time.Now(),
	}
	select {
	case n.ch <- msg:
	default:
		if n.errs != nil {
			n.errs.Report(ErrNotificationDropped)
		}
	}
}

func (n *Notifier) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				n.log.Info("notifier stopped", "revision", n.last)
				return
			case msg := <-n.ch:
				n.publish(msg)
			}
		}
	}()
}

// publish logs msg. Revisions between the last published one and msg were
// produced by loads or by notifications that were dropped; they are counted
// as skipped. A revision older than the last one arrived out of order.
func (n *Notifier) publish(msg Notification) {
	attrs := []any{
		slog.String("action", msg.Action),
		slog.Int64("user_id", msg.UserID),
		slog.String("user_name", msg.UserName),
		slog.Uint64("revision", msg.Revision),
		slog.Int("users", msg.Size),
		slog.Duration("lag", time.Since(msg.At)),
	}

	switch {
	case msg.Revision <= n.last:
		n.log.Warn("store change out of order", append(attrs, slog.Uint64("last_revision", n.last))...)
		return
	case n.last > 0 && msg.Revision > n.last+1:
		attrs = append(attrs, slog.Uint64("skipped", msg.Revision-n.last-1))
	}
	n.last = msg.Revision
	n.log.Info("store changed", attrs...)
}
