package types

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vestwatch/vestwatch/pkg/chain"
	"github.com/vestwatch/vestwatch/pkg/rpc"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
	"go.uber.org/zap"
)

// ErrAccountNotTracked is returned for accounts the service does not replay.
var ErrAccountNotTracked = errors.New("account not tracked")

// TrackerConfig wires a Tracker to its collaborators.
type TrackerConfig struct {
	Account            string
	History            rpc.HistoryReader
	Votes              snapshot.VoteFetcher
	Converter          chain.Converter
	VoteCost           chain.VoteCost
	HistoryOptions     rpc.HistoryOptions
	BuildOptions       snapshot.BuildOptions
	CurationWindowDays int
	// Events is optional.
	Events *Broker
	Logger *zap.Logger
}

// TrackerStatus summarises a tracker for the API.
type TrackerStatus struct {
	Account     string     `json:"account"`
	Operations  int        `json:"operations"`
	LastIndex   *uint64    `json:"last_index,omitempty"`
	Cursor      *time.Time `json:"cursor,omitempty"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Tracker keeps one account's replay current. Refresh fetches the operations
// above the last seen sequence index, resumes the build and recomputes the
// derived series.
type Tracker struct {
	account string
	history rpc.HistoryReader
	hopts   rpc.HistoryOptions
	bopts   snapshot.BuildOptions
	window  int
	events  *Broker
	logger  *zap.Logger

	mu        sync.RWMutex
	snap      *snapshot.AccountSnapshot
	lastIndex *uint64
	refreshed time.Time
	lastErr   error
}

func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.History == nil {
		return nil, fmt.Errorf("tracker %s: history reader is required", cfg.Account)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	snap, err := snapshot.New(snapshot.Config{
		Account:   cfg.Account,
		Converter: cfg.Converter,
		Votes:     cfg.Votes,
		VoteCost:  cfg.VoteCost,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.CurationWindowDays <= 0 {
		cfg.CurationWindowDays = 7
	}
	return &Tracker{
		account: cfg.Account,
		history: cfg.History,
		hopts:   cfg.HistoryOptions,
		bopts:   cfg.BuildOptions,
		window:  cfg.CurationWindowDays,
		events:  cfg.Events,
		logger:  cfg.Logger.With(zap.String("account", cfg.Account)),
		snap:    snap,
	}, nil
}

func (t *Tracker) Account() string { return t.account }

// Refresh brings the replay up to date with the node.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.refresh(ctx)
	t.lastErr = err
	return err
}

func (t *Tracker) refresh(ctx context.Context) error {
	start := time.Now()
	hopts := t.hopts
	hopts.Since = t.lastIndex
	if hopts.Logger == nil {
		hopts.Logger = t.logger
	}

	list, err := rpc.FetchHistory(ctx, t.history, t.account, hopts)
	if err != nil {
		return fmt.Errorf("fetch history of %s: %w", t.account, err)
	}
	if len(list) > 0 {
		t.snap.Append(list...)
		last := list[len(list)-1].Index
		t.lastIndex = &last
	}

	if err := t.snap.Build(ctx, t.bopts); err != nil {
		return fmt.Errorf("build %s: %w", t.account, err)
	}
	t.snap.BuildPowerSeries()
	t.snap.BuildReputationSeries()
	t.snap.BuildVotingPowerSeries()
	if _, err := t.snap.BuildCurationSeries(nil, t.window); err != nil {
		return fmt.Errorf("curation series of %s: %w", t.account, err)
	}
	t.refreshed = time.Now().UTC()
	t.lastErr = nil

	t.logger.Info("Account refreshed",
		zap.Int("new_operations", len(list)),
		zap.Int("operations", t.snap.Len()),
		zap.Duration("took", time.Since(start)))

	if t.events != nil && len(list) > 0 {
		t.events.Publish(Event{
			Type:    EventAccountRefreshed,
			Account: t.account,
			Payload: t.status(),
		})
	}
	return nil
}

// View runs fn with read access to the replay.
func (t *Tracker) View(fn func(s *snapshot.AccountSnapshot) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(t.snap)
}

func (t *Tracker) Status() TrackerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status()
}

func (t *Tracker) status() TrackerStatus {
	st := TrackerStatus{Account: t.account, Operations: t.snap.Len()}
	if t.lastIndex != nil {
		idx := *t.lastIndex
		st.LastIndex = &idx
	}
	if c, ok := t.snap.Cursor(); ok {
		st.Cursor = &c
	}
	if !t.refreshed.IsZero() {
		r := t.refreshed
		st.RefreshedAt = &r
	}
	if t.lastErr != nil {
		st.LastError = t.lastErr.Error()
	}
	return st
}
