package chain

import "math"

// ReputationToScore maps a raw reputation value onto the familiar 25-based
// score shown by front ends.
func ReputationToScore(rep int64) float64 {
	if rep == 0 {
		return 25
	}
	score := math.Log10(math.Abs(float64(rep))) - 9
	if score < 0 {
		score = 0
	}
	if rep < 0 {
		score = -score
	}
	return score*9 + 25
}
