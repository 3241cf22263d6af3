// Copyright (c) 2025 BVK Chaitanya

// Package alert sends operator notifications for events that likely need a
// human to act, like liquidity shortfalls. Notification failures are logged
// and never affect the trading pipeline.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/visvasity/topic"

	"github.com/bvk/lpbot/engine"
)

// Notifier delivers one message to an operator channel.
type Notifier interface {
	SendMessage(ctx context.Context, at time.Time, text string) error
}

// Alerter fans messages out to the configured notifiers and watches the
// shortfall stream in the background.
type Alerter struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	notifiers []Notifier

	recv *topic.Receiver[engine.Shortfall]
}

// New starts an alerter consuming the given shortfall stream. The receiver
// is owned (and closed) by the alerter. A nil receiver disables the
// shortfall watch and keeps only the Notify surface.
func New(recv *topic.Receiver[engine.Shortfall], notifiers ...Notifier) *Alerter {
	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	a := &Alerter{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		notifiers:  notifiers,
		recv:       recv,
	}
	if recv != nil {
		a.wg.Add(1)
		go a.goWatchShortfalls()
	}
	return a
}

func (a *Alerter) Close() error {
	a.lifeCancel(os.ErrClosed)
	if a.recv != nil {
		a.recv.Close()
	}
	a.wg.Wait()
	return nil
}

// Notify sends the message through every configured notifier. Failures are
// logged per notifier and do not stop delivery to the rest.
func (a *Alerter) Notify(ctx context.Context, text string) {
	at := time.Now()
	for _, n := range a.notifiers {
		if err := n.SendMessage(ctx, at, text); err != nil {
			slog.Error("could not send operator notification (ignored)", "err", err)
		}
	}
}

func (a *Alerter) goWatchShortfalls() {
	defer a.wg.Done()

	for a.lifeCtx.Err() == nil {
		shortfall, err := a.recv.Receive()
		if err != nil {
			return
		}
		text := fmt.Sprintf("liquidity shortfall: need %s of %s for a %s order on %s", shortfall.Amount, shortfall.Asset, shortfall.Side, shortfall.Pair)
		a.Notify(a.lifeCtx, text)
	}
}
