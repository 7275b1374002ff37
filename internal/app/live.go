package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/lifestream/internal/api"
	"github.com/blackwell-systems/lifestream/internal/output"
	"github.com/blackwell-systems/lifestream/internal/stream"
	"github.com/blackwell-systems/lifestream/internal/watcher"
)

const (
	defaultRefresh = time.Second
	recentAlerts   = 5
	clearScreen    = "\033[H\033[2J"
)

// liveOptions selects which services run next to the stream.
type liveOptions struct {
	serve     bool
	addr      string
	notify    bool
	dashboard bool
	refresh   time.Duration
	duration  time.Duration
}

// alertLog keeps the newest alerts for the dashboard footer.
type alertLog struct {
	mu     sync.Mutex
	alerts []watcher.Alert
}

func (l *alertLog) add(a watcher.Alert) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = append(l.alerts, a)
	if len(l.alerts) > recentAlerts {
		l.alerts = l.alerts[len(l.alerts)-recentAlerts:]
	}
}

func (l *alertLog) recent() []watcher.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]watcher.Alert(nil), l.alerts...)
}

// runLive runs s on the wall clock together with the watcher, the sink
// dispatcher and, when asked, the HTTP API and the dashboard. It returns
// when ctx is cancelled, opts.duration elapses or a component fails.
func runLive(ctx context.Context, e *env, s *stream.Stream, opts liveOptions) error {
	ctx, stop := notifyContext(ctx)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	dispatcher, cleanup, err := e.newDispatcher(ctx, s.Now)
	if err != nil {
		return err
	}
	defer cleanup()

	var alerts alertLog
	w := watcher.New(func(a watcher.Alert) {
		alerts.add(a)
		if opts.notify {
			if err := watcher.Notify(a); err != nil {
				e.logger.Debug("desktop notification failed", zap.Error(err))
			}
		}
		// Without a live redraw, alerts stream as plain lines.
		if opts.dashboard && !e.tty && !flagJSON {
			fmt.Println(output.RenderAlert(a, e.loc))
		}
	})
	detachWatcher := w.Attach(s.Bus())
	defer detachWatcher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(s.Run(gctx))
	})
	g.Go(func() error {
		return w.Run(gctx)
	})
	if dispatcher != nil {
		detach := dispatcher.Attach(s.Bus())
		defer detach()
		g.Go(func() error {
			return dispatcher.Run(gctx)
		})
	}
	if opts.serve {
		g.Go(func() error {
			return api.Serve(gctx, opts.addr, s, e.logger.Named("http"))
		})
	}
	live := opts.dashboard && e.tty && !flagJSON
	if live {
		g.Go(func() error {
			refreshDashboard(gctx, os.Stdout, s, &alerts, e, opts.refresh)
			return nil
		})
	}

	err = g.Wait()
	if d := w.Dropped(); d > 0 {
		e.logger.Warn("alerts dropped", zap.Int("count", d))
	}
	if err != nil {
		return err
	}
	// A live dashboard already shows the final state.
	if opts.dashboard && !live {
		return printState(os.Stdout, s, e)
	}
	return nil
}

func refreshDashboard(ctx context.Context, out io.Writer, s *stream.Stream, alerts *alertLog, e *env, every time.Duration) {
	if every <= 0 {
		every = defaultRefresh
	}
	dash := output.NewDashboard(e.loc)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		var sb strings.Builder
		sb.WriteString(clearScreen)
		sb.WriteString(dash.Render(s.Now(), s.GetState()))
		if recent := alerts.recent(); len(recent) > 0 {
			sb.WriteString(output.Section("Alerts") + "\n")
			for _, a := range recent {
				sb.WriteString(" " + output.RenderAlert(a, e.loc) + "\n")
			}
		}
		sb.WriteString("\n " + output.StyleMuted.Render("ctrl-c to stop") + "\n")
		fmt.Fprint(out, sb.String())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// printState writes the final state as a dashboard, or as JSON with --json.
func printState(out io.Writer, s *stream.Stream, e *env) error {
	if flagJSON {
		return writeJSON(out, s.GetState())
	}
	fmt.Fprint(out, output.NewDashboard(e.loc).Render(s.Now(), s.GetState()))
	return nil
}

// ignoreCancel treats a cancelled or expired context as a clean stop.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
