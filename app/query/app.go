package query

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/vestwatch/vestwatch/app/query/types"
	"github.com/vestwatch/vestwatch/pkg/chain"
	"github.com/vestwatch/vestwatch/pkg/config"
	"github.com/vestwatch/vestwatch/pkg/logging"
	"github.com/vestwatch/vestwatch/pkg/rpc"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	cfg, err := config.Load()
	if err != nil {
		// nothing else to do here, no logger yet
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}

	node, err := rpc.DefaultFactory{Opts: cfg.RPCOpts()}.NewNode(cfg.Nodes)
	if err != nil {
		logger.Fatal("Unable to initialize node client", zap.Error(err))
	}

	app, err := NewApp(ctx, cfg, node, logger)
	if err != nil {
		logger.Fatal("Unable to initialize trackers", zap.Error(err))
	}
	return app
}

// NewApp wires one tracker per configured account around a shared node
// client. The stake converter is sampled from the node once; when that
// fails the historical approximation is used.
func NewApp(ctx context.Context, cfg *config.Config, node rpc.Node, logger *zap.Logger) (*types.App, error) {
	var conv chain.Converter = chain.HistoricalRate
	if sampled, err := rpc.NewSampledConverter(ctx, node); err != nil {
		logger.Warn("Unable to sample vesting ratio, using historical approximation", zap.Error(err))
	} else {
		conv = sampled
	}

	app := &types.App{
		Config:   cfg,
		Node:     node,
		Trackers: xsync.NewMap[string, *types.Tracker](),
		Events:   types.NewBroker(),
		Logger:   logger,
	}

	votes := rpc.NewVoteResolver(node)
	for _, account := range cfg.Accounts {
		t, err := types.NewTracker(types.TrackerConfig{
			Account:            account,
			History:            node,
			Votes:              votes,
			Converter:          conv,
			VoteCost:           chain.ResultingVote(cfg.VoteReserveRate),
			HistoryOptions:     cfg.HistoryOptions(),
			BuildOptions:       cfg.BuildOptions(),
			CurationWindowDays: cfg.CurationWindowDays,
			Events:             app.Events,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("tracker %s: %w", account, err)
		}
		app.Trackers.Store(account, t)
	}

	if err := app.SetupScheduler(ctx, cfg.RefreshCron, refreshTimeout(cfg)); err != nil {
		return nil, fmt.Errorf("refresh schedule: %w", err)
	}
	logger.Info("Trackers ready", zap.Strings("accounts", app.Accounts()))
	return app, nil
}

// refreshTimeout bounds one scheduled refresh of all accounts.
func refreshTimeout(cfg *config.Config) time.Duration {
	return max(10*cfg.RPCTimeout, time.Minute)
}
