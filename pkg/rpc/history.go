package rpc

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/alitto/pond/v2"
	"github.com/vestwatch/vestwatch/pkg/ops"
	"github.com/vestwatch/vestwatch/pkg/retry"
	"go.uber.org/zap"
)

// HistoryOptions tune FetchHistory.
type HistoryOptions struct {
	// BatchSize is the number of operations per page, at most 1000.
	BatchSize int
	// Workers is the number of pages fetched in parallel.
	Workers int
	// Since skips operations with sequence index <= *Since.
	Since  *uint64
	Retry  retry.Config
	Logger *zap.Logger
}

func (o *HistoryOptions) defaults() {
	if o.BatchSize <= 0 || o.BatchSize > maxHistoryLimit {
		o.BatchSize = maxHistoryLimit
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Retry.MaxRetries <= 0 {
		o.Retry = retry.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type page struct {
	end   int64
	limit int
}

// FetchHistory downloads an account's history, newest page first, with pages
// fetched in parallel and retried individually. The result is sorted by
// sequence index.
func FetchHistory(ctx context.Context, c HistoryReader, account string, o HistoryOptions) ([]ops.Operation, error) {
	o.defaults()
	logger := o.Logger.With(zap.String("account", account))

	var newest []ops.Operation
	err := retry.WithBackoff(ctx, o.Retry, logger, "account_history_head", func() error {
		var err error
		newest, err = c.AccountHistory(ctx, account, latestHistoryPosition, 1)
		return permanentIfRPC(err)
	})
	if err != nil {
		return nil, err
	}
	if len(newest) == 0 {
		return nil, nil
	}
	latest := int64(newest[len(newest)-1].Index)

	lowest := int64(0)
	if o.Since != nil {
		lowest = int64(*o.Since) + 1
	}
	if lowest > latest {
		return nil, nil
	}

	var pages []page
	for end := latest; end >= lowest; end -= int64(o.BatchSize) {
		pages = append(pages, page{end: end, limit: int(min(int64(o.BatchSize-1), end))})
	}

	results := make([][]ops.Operation, len(pages))
	errs := make([]error, len(pages))

	pool := pond.NewPool(o.Workers)
	defer pool.StopAndWait()
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, p := range pages {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = retry.WithBackoff(groupCtx, o.Retry, logger, "account_history_page", func() error {
				list, err := c.AccountHistory(groupCtx, account, p.end, p.limit)
				if err != nil {
					return permanentIfRPC(err)
				}
				results[i] = list
				return nil
			})
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Warn("history fetch group encountered error", zap.Error(err))
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("history page ending at %d: %w", pages[i].end, err)
		}
	}

	seen := make(map[uint64]struct{}, latest-lowest+1)
	out := make([]ops.Operation, 0, latest-lowest+1)
	for _, list := range results {
		for _, op := range list {
			if int64(op.Index) < lowest {
				continue
			}
			if _, dup := seen[op.Index]; dup {
				continue
			}
			seen[op.Index] = struct{}{}
			out = append(out, op)
		}
	}
	slices.SortFunc(out, func(a, b ops.Operation) int { return cmp.Compare(a.Index, b.Index) })

	logger.Debug("history fetched",
		zap.Int("operations", len(out)),
		zap.Int("pages", len(pages)),
		zap.Int64("latest_index", latest))
	return out, nil
}

func permanentIfRPC(err error) error {
	if IsRPCError(err) {
		return retry.Permanent(err)
	}
	return err
}
