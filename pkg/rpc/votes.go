package rpc

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/vestwatch/vestwatch/pkg/ops"
	"github.com/vestwatch/vestwatch/pkg/snapshot"
)

// VoteResolver looks up voter reputation and rshares through
// get_active_votes. Each post is fetched once and cached for the life of the
// resolver.
type VoteResolver struct {
	client VoteReader
	posts  *xsync.Map[string, map[string]snapshot.VoteInfo]
}

// NewVoteResolver returns a VoteResolver backed by c.
func NewVoteResolver(c VoteReader) *VoteResolver {
	return &VoteResolver{
		client: c,
		posts:  xsync.NewMap[string, map[string]snapshot.VoteInfo](),
	}
}

// FetchVoteInfo implements snapshot.VoteFetcher.
func (r *VoteResolver) FetchVoteInfo(ctx context.Context, _ ops.Operation, vote ops.Vote) (snapshot.VoteInfo, error) {
	key := vote.Author + "/" + vote.Permlink
	votes, ok := r.posts.Load(key)
	if !ok {
		list, err := r.client.ActiveVotes(ctx, vote.Author, vote.Permlink)
		if err != nil {
			return snapshot.VoteInfo{}, err
		}
		votes = make(map[string]snapshot.VoteInfo, len(list))
		for _, v := range list {
			votes[v.Voter] = snapshot.VoteInfo{Reputation: v.Reputation, Rshares: v.Rshares}
		}
		votes, _ = r.posts.LoadOrStore(key, votes)
	}
	info, ok := votes[vote.Voter]
	if !ok {
		return snapshot.VoteInfo{}, fmt.Errorf("vote by %s not found on @%s", vote.Voter, key)
	}
	return info, nil
}

// Cached returns the number of posts whose votes are cached.
func (r *VoteResolver) Cached() int { return r.posts.Size() }
