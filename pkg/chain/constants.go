package chain

// Protocol constants shared by the replay core and its collaborators.
const (
	// Percent100 is full voting power / full vote weight in basis points.
	Percent100 = 10000
	// Percent1 is one percent in basis points.
	Percent1 = 100
	// VoteRegenerationSeconds is the time voting power needs to regenerate from 0 to 100%.
	VoteRegenerationSeconds = 5 * 24 * 60 * 60
	// ReputationShift scales rshares down before they enter the reputation accumulator.
	ReputationShift = 6
	// DefaultVotePowerReserveRate is the number of full votes per regeneration window
	// before HF21.
	DefaultVotePowerReserveRate = 10
)
