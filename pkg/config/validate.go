package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("NODES is required")
	}
	ws := isWebsocket(c.Nodes[0])
	for _, n := range c.Nodes {
		if !strings.Contains(n, "://") {
			return fmt.Errorf("NODES entry %q has no scheme", n)
		}
		if isWebsocket(n) != ws {
			return errors.New("NODES must not mix http and websocket endpoints")
		}
	}
	for _, a := range c.Accounts {
		if strings.TrimSpace(a) == "" {
			return errors.New("ACCOUNTS must not contain empty names")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if c.LogEncoding != "json" && c.LogEncoding != "console" {
		return fmt.Errorf("LOG_ENCODING must be json or console, got %q", c.LogEncoding)
	}

	if _, err := cron.NewParser(CronSpec).Parse(c.RefreshCron); err != nil {
		return fmt.Errorf("REFRESH_CRON: %w", err)
	}
	if c.RPCTimeout <= 0 {
		return errors.New("RPC_TIMEOUT must be > 0")
	}
	if c.RPCRPS < 1 {
		return errors.New("RPC_RPS must be >= 1")
	}
	if c.HistoryBatch < 1 || c.HistoryBatch > 1000 {
		return fmt.Errorf("HISTORY_BATCH must be between 1 and 1000, got %d", c.HistoryBatch)
	}
	if c.HistoryWorkers < 1 {
		return errors.New("HISTORY_WORKERS must be >= 1")
	}
	if c.VoteReserveRate < 1 {
		return errors.New("VOTE_RESERVE_RATE must be >= 1")
	}
	if c.CurationWindowDays < 1 {
		return errors.New("CURATION_WINDOW_DAYS must be >= 1")
	}
	return nil
}

// CronSpec is the parser layout for REFRESH_CRON.
const CronSpec = cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

func isWebsocket(ep string) bool {
	return strings.HasPrefix(ep, "ws://") || strings.HasPrefix(ep, "wss://")
}
