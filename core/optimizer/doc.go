// Package optimizer selects the contracted capacity that minimises expected
// annual cost against a Monte Carlo distribution of monthly peak demand.
//
// Candidate levels lie on the tariff's quantization lattice and span the
// distribution's range and the current contract, so consecutive candidates
// always differ by exactly one step. The current contract must be a multiple
// of the step, and the grid may hold at most the tariff's MaxCandidates
// levels. Each candidate is scored as
//
//	expected annual cost + (1 - riskTolerance) * riskWeight * overage probability
//
// and the lowest score wins, with ties going to the smaller contract. All
// functions are pure: the same inputs always produce the same result.
package optimizer
