package chain

// VoteCost returns the voting power, in basis points, a vote of the given
// weight consumes at the given current voting power.
type VoteCost func(votingPower, weight int) int

// ResultingVote returns the vote cost function for a chain with the given
// vote power reserve rate (votes per regeneration window).
func ResultingVote(reserveRate int) VoteCost {
	if reserveRate <= 0 {
		reserveRate = DefaultVotePowerReserveRate
	}
	maxVoteDenom := int64(reserveRate) * VoteRegenerationSeconds
	return func(votingPower, weight int) int {
		if weight < 0 {
			weight = -weight
		}
		used := int64(votingPower) * int64(weight) * 60 * 60 * 24 / Percent100
		return int((used + maxVoteDenom - 1) / maxVoteDenom)
	}
}

// Regenerate returns the voting power after elapsedSeconds of linear
// regeneration, capped at Percent100.
func Regenerate(votingPower int, elapsedSeconds float64) int {
	if votingPower >= Percent100 {
		return Percent100
	}
	if elapsedSeconds > 0 {
		votingPower += int(elapsedSeconds * Percent100 / VoteRegenerationSeconds)
	}
	if votingPower > Percent100 {
		return Percent100
	}
	return votingPower
}
