// Package watcher runs one polling loop per wallet, detects new activity with
// a timestamp cursor and forwards it to the notifier.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brojonat/polywatch/service/config"
	"github.com/brojonat/polywatch/service/filter"
	"github.com/brojonat/polywatch/service/metrics"
	natspkg "github.com/brojonat/polywatch/service/nats"
	"github.com/brojonat/polywatch/service/notify"
	"github.com/brojonat/polywatch/service/polymarket"
	"golang.org/x/sync/errgroup"
)

// ActivitySource returns a wallet's activity newer than since (unix seconds).
// *polymarket.Client satisfies it.
type ActivitySource interface {
	FetchActivity(ctx context.Context, wallet string, since int64) ([]polymarket.Activity, error)
}

// Watcher polls every configured wallet on a fixed interval.
type Watcher struct {
	wallets     []config.Wallet
	interval    time.Duration
	cursorStart string

	source    ActivitySource
	notifier  notify.Notifier
	publisher natspkg.Publisher
	filter    *filter.Filter
	registry  *Registry
	metrics   *metrics.Metrics
	logger    *slog.Logger

	consoleMu sync.Mutex
	console   io.Writer

	now func() time.Time
}

// Option configures optional collaborators.
type Option func(*Watcher)

// WithPublisher also publishes every notified record as an event.
func WithPublisher(p natspkg.Publisher) Option {
	return func(w *Watcher) { w.publisher = p }
}

// WithFilter restricts which new records are notified.
func WithFilter(f *filter.Filter) Option {
	return func(w *Watcher) { w.filter = f }
}

// WithRegistry publishes per-wallet status snapshots into r.
func WithRegistry(r *Registry) Option {
	return func(w *Watcher) { w.registry = r }
}

// WithMetrics records poll and notification metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithConsole sets the operator console writer (stdout by default in the
// notifier binary). Nil disables console output.
func WithConsole(out io.Writer) Option {
	return func(w *Watcher) { w.console = out }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// New creates a watcher for cfg's wallets. Configuration is read once here
// and never again.
func New(cfg *config.Config, source ActivitySource, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		wallets:     append([]config.Wallet(nil), cfg.Wallets...),
		interval:    cfg.PollInterval,
		cursorStart: cfg.CursorStart,
		source:      source,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.registry == nil {
		w.registry = NewRegistry()
	}
	return w
}

// Registry returns the status registry the loops write to.
func (w *Watcher) Registry() *Registry {
	return w.registry
}

// InitialStates builds one cursor per wallet according to the cursor start
// mode and registers each wallet with the status registry.
func (w *Watcher) InitialStates() []*WalletState {
	var start int64
	if w.cursorStart == config.CursorStartNow {
		start = w.now().Unix()
	}

	states := make([]*WalletState, 0, len(w.wallets))
	for _, wallet := range w.wallets {
		state := &WalletState{
			Address: wallet.Address,
			Label:   wallet.DisplayName(),
			Cursor:  start,
		}
		w.registry.Register(state.Address, state.Label, state.Cursor)
		w.metrics.SetWalletCursor(state.Address, state.Cursor)
		states = append(states, state)
	}
	return states
}

// Run starts one loop per wallet and blocks until ctx is cancelled. Loops
// never fail; fetch and delivery errors are logged and the loop carries on.
func (w *Watcher) Run(ctx context.Context) error {
	states := w.InitialStates()
	if len(states) == 0 {
		return errors.New("no wallets to watch")
	}

	w.logger.Info("watcher starting",
		"wallets", len(states),
		"poll_interval", w.interval,
		"cursor_start", w.cursorStart,
		"filtered", !w.filter.Empty(),
		"publisher", w.publisher != nil,
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, state := range states {
		g.Go(func() error {
			w.loop(ctx, state)
			return nil
		})
	}

	err := g.Wait()
	w.logger.Info("watcher stopped")
	return err
}

// loop polls immediately, then once per interval, until ctx is done.
func (w *Watcher) loop(ctx context.Context, state *WalletState) {
	logger := w.logger.With("wallet", state.Address, "label", state.Label)
	logger.Debug("wallet loop started", "cursor", state.Cursor)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		// Tick logs and counts its own errors.
		_ = w.Tick(ctx, state)

		select {
		case <-ctx.Done():
			logger.Debug("wallet loop stopped", "cursor", state.Cursor)
			return
		case <-ticker.C:
		}
	}
}

// Tick runs one fetch, diff, notify cycle for a wallet. The cursor advances
// as soon as the fetch succeeds, before any delivery, so a failed delivery is
// never retried. A failed fetch leaves the cursor untouched and is returned.
func (w *Watcher) Tick(ctx context.Context, state *WalletState) error {
	start := w.now()
	logger := w.logger.With("wallet", state.Address, "label", state.Label)

	records, err := w.source.FetchActivity(ctx, state.Address, state.Cursor)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("failed to fetch activity", "cursor", state.Cursor, "error", err)
		w.printf("❌ [%s] [%s] fetch failed (cursor=%d): %v\n",
			state.Label, start.UTC().Format(notify.TimeLayout), state.Cursor, err)
		w.metrics.RecordPollTick(state.Address, "error", metrics.Since(start))
		w.registry.update(state.Address, func(s *WalletStatus) {
			s.Ticks++
			s.FetchErrors++
			s.LastPoll = &start
			s.LastError = err.Error()
		})
		return err
	}

	fresh := state.Advance(records)

	w.metrics.RecordActivityFetched(state.Address, len(records))
	w.metrics.RecordActivityNew(state.Address, len(fresh))
	w.metrics.SetWalletCursor(state.Address, state.Cursor)

	if len(fresh) > 0 {
		logger.Info("new activity",
			"fetched", len(records),
			"new", len(fresh),
			"cursor", state.Cursor,
		)
	}

	var filtered, notified, failed int64
	for _, a := range fresh {
		if !w.filter.Match(a) {
			filtered++
			continue
		}

		w.printActivity(state, a)

		if err := w.deliver(ctx, state, a); err != nil {
			failed++
			logger.Error("failed to deliver notification",
				"activity_id", a.ID,
				"timestamp", a.Timestamp,
				"error", err,
			)
			w.printf("❌ [%s] notification failed: %v\n", state.Label, err)
		} else {
			notified++
		}

		w.publish(ctx, state, a, logger)
	}

	if filtered > 0 {
		w.metrics.RecordActivitySkipped(state.Address, "filtered", int(filtered))
	}
	w.metrics.RecordPollTick(state.Address, "success", metrics.Since(start))

	w.registry.update(state.Address, func(s *WalletStatus) {
		s.Cursor = state.Cursor
		s.Ticks++
		s.LastPoll = &start
		s.LastError = ""
		s.NewActivity += int64(len(fresh))
		s.Filtered += filtered
		s.Notified += notified
		s.DeliveryErrors += failed
	})

	w.printf("⏳ [%s] [%s] %d fetched, %d new, %d notified (cursor=%d)\n",
		state.Label, start.UTC().Format(notify.TimeLayout), len(records), len(fresh), notified, state.Cursor)

	return nil
}

func (w *Watcher) deliver(ctx context.Context, state *WalletState, a polymarket.Activity) error {
	start := time.Now()
	err := w.notifier.Send(ctx, notify.FormatActivity(a, state.Label))
	w.metrics.RecordNotification(notify.SinkName(w.notifier), err, metrics.Since(start))
	return err
}

// publish is best effort, like delivery.
func (w *Watcher) publish(ctx context.Context, state *WalletState, a polymarket.Activity, logger *slog.Logger) {
	if w.publisher == nil {
		return
	}
	event := natspkg.FromActivity(state.Address, state.Label, a)
	if err := w.publisher.PublishActivity(ctx, event); err != nil {
		logger.Warn("failed to publish activity event",
			"activity_id", a.ID,
			"error", err,
		)
	}
}

func (w *Watcher) printActivity(state *WalletState, a polymarket.Activity) {
	var b strings.Builder
	fmt.Fprintf(&b, "🆕 [%s] %s %s %s\n", state.Label, a.Type, a.Side, a.Outcome)
	fmt.Fprintf(&b, "   market: %s\n", a.Title)
	fmt.Fprintf(&b, "   size:   %s @ $%s (value $%s)\n", a.Size.String(), a.Price.String(), a.Value().StringFixed(2))
	fmt.Fprintf(&b, "   time:   %s\n", a.Time().Format(notify.TimeLayout))
	fmt.Fprintf(&b, "   tx:     %s\n", a.ID)
	w.write(b.String())
}

func (w *Watcher) printf(format string, args ...any) {
	if w.console == nil {
		return
	}
	w.write(fmt.Sprintf(format, args...))
}

// write emits s in one call so blocks from different wallets don't interleave.
func (w *Watcher) write(s string) {
	if w.console == nil {
		return
	}
	w.consoleMu.Lock()
	defer w.consoleMu.Unlock()
	_, _ = io.WriteString(w.console, s)
}
