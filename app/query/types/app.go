package types

import (
	"context"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/vestwatch/vestwatch/pkg/config"
	"github.com/vestwatch/vestwatch/pkg/rpc"
	"go.uber.org/zap"
)

type App struct {
	Config *config.Config
	// Node is the shared RPC client all trackers read through.
	Node rpc.Node
	// Trackers maps account name to its replay.
	Trackers *xsync.Map[string, *Tracker]
	// Events feeds the websocket stream.
	Events *Broker
	// Cron triggers RefreshAll according to Config.RefreshCron.
	Cron *cron.Cron
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// LoadTracker returns the tracker of an account or ErrAccountNotTracked.
func (a *App) LoadTracker(account string) (*Tracker, error) {
	t, ok := a.Trackers.Load(account)
	if !ok {
		return nil, ErrAccountNotTracked
	}
	return t, nil
}

// Accounts returns the tracked account names in order.
func (a *App) Accounts() []string {
	out := make([]string, 0, a.Trackers.Size())
	a.Trackers.Range(func(name string, _ *Tracker) bool {
		out = append(out, name)
		return true
	})
	slices.Sort(out)
	return out
}

// RefreshAll refreshes every tracker, a few at a time. Failures are logged
// and returned as a count.
func (a *App) RefreshAll(ctx context.Context) int {
	workers := 2
	if a.Config != nil && a.Config.HistoryWorkers > 0 {
		workers = a.Config.HistoryWorkers
	}
	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)

	var failures atomic.Int64
	a.Trackers.Range(func(name string, t *Tracker) bool {
		group.Submit(func() {
			if err := t.Refresh(group.Context()); err != nil {
				failures.Add(1)
				a.Logger.Warn("Account refresh failed", zap.String("account", name), zap.Error(err))
			}
		})
		return true
	})
	_ = group.Wait()
	return int(failures.Load())
}

// SetupScheduler registers the periodic refresh. Each run is bounded by
// timeout.
func (a *App) SetupScheduler(ctx context.Context, spec string, timeout time.Duration) error {
	logger := cronLogger{a.Logger.Sugar()}
	a.Cron = cron.New(
		cron.WithParser(cron.NewParser(config.CronSpec)),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		cron.WithLogger(logger),
	)
	_, err := a.Cron.AddFunc(spec, func() {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if failed := a.RefreshAll(rctx); failed > 0 {
			a.Logger.Warn("Scheduled refresh finished with failures", zap.Int("failed", failed))
		}
	})
	return err
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	if a.Cron != nil {
		a.Cron.Start()
		a.Logger.Info("Cron started", zap.String("cronSpec", a.Config.RefreshCron))
	}
	go a.RefreshAll(ctx)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	_ = a.Server.Shutdown(shutdownCtx)
	if a.Node != nil {
		if err := a.Node.Close(); err != nil {
			a.Logger.Error("Failed to close node client", zap.Error(err))
		}
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
