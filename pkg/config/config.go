package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/vestwatch/vestwatch/pkg/rpc"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
)

// Config is the service configuration read from the environment.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`

	// Addr is <ip>:<port> or :<port> for the query API.
	Addr     string   `env:"ADDR"     envDefault:":3001"`
	Nodes    []string `env:"NODES"    envSeparator:"," envDefault:"https://api.steemit.com"`
	Accounts []string `env:"ACCOUNTS" envSeparator:","`

	// RefreshCron uses the six-field (seconds) cron syntax.
	RefreshCron    string        `env:"REFRESH_CRON"    envDefault:"0 */5 * * * *"`
	RPCTimeout     time.Duration `env:"RPC_TIMEOUT"     envDefault:"15s"`
	RPCRPS         int           `env:"RPC_RPS"         envDefault:"20"`
	HistoryBatch   int           `env:"HISTORY_BATCH"   envDefault:"1000"`
	HistoryWorkers int           `env:"HISTORY_WORKERS" envDefault:"4"`

	VoteReserveRate    int  `env:"VOTE_RESERVE_RATE"    envDefault:"10"`
	EnableRewards      bool `env:"ENABLE_REWARDS"       envDefault:"true"`
	EnableOutVotes     bool `env:"ENABLE_OUT_VOTES"     envDefault:"true"`
	EnableInVotes      bool `env:"ENABLE_IN_VOTES"      envDefault:"false"`
	CurationWindowDays int  `env:"CURATION_WINDOW_DAYS" envDefault:"7"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// RPCOpts returns the transport options.
func (c *Config) RPCOpts() rpc.Opts {
	return rpc.Opts{Endpoints: c.Nodes, Timeout: c.RPCTimeout, RPS: c.RPCRPS}
}

// HistoryOptions returns the history fetch options.
func (c *Config) HistoryOptions() rpc.HistoryOptions {
	return rpc.HistoryOptions{BatchSize: c.HistoryBatch, Workers: c.HistoryWorkers}
}

// BuildOptions returns the replay options. Nothing is filtered.
func (c *Config) BuildOptions() snapshot.BuildOptions {
	return snapshot.BuildOptions{
		Rewards:  c.EnableRewards,
		OutVotes: c.EnableOutVotes,
		InVotes:  c.EnableInVotes,
	}
}
