package rpc

import (
	"context"

	"github.com/vestwatch/vestwatch/pkg/ops"
)

// HistoryReader pages through an account's operation history.
type HistoryReader interface {
	AccountHistory(ctx context.Context, account string, start int64, limit int) ([]ops.Operation, error)
}

// VoteReader lists the votes on a post.
type VoteReader interface {
	ActiveVotes(ctx context.Context, author, permlink string) ([]ActiveVote, error)
}

// PropertiesReader reads the chain's global properties.
type PropertiesReader interface {
	DynamicGlobalProperties(ctx context.Context) (GlobalProperties, error)
}

// Node captures the node calls used when replaying accounts.
type Node interface {
	HistoryReader
	VoteReader
	PropertiesReader
	Close() error
}

// Factory produces node clients for a given set of endpoints.
type Factory interface {
	NewNode(endpoints []string) (Node, error)
}

// DefaultFactory builds Clients over NewTransport.
type DefaultFactory struct {
	Opts Opts
}

// NewNode implements Factory.
func (f DefaultFactory) NewNode(endpoints []string) (Node, error) {
	t, err := NewTransport(endpoints, f.Opts)
	if err != nil {
		return nil, err
	}
	return NewClient(t), nil
}

var _ Node = (*Client)(nil)
