// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

// Turnout returns the votes-cast share of ballots-cast as a percentage.
// When ballotsCast is zero (or either figure is negative) turnout is
// undefined: ok is false and the computation degrades rather than
// failing the surrounding report.
func Turnout(votesCast, ballotsCast int) (pct float64, ok bool) {
	if ballotsCast <= 0 || votesCast < 0 {
		return 0, false
	}
	return float64(votesCast) / float64(ballotsCast) * 100, true
}

// TurnoutPtr is Turnout shaped for report structs: nil when undefined.
func TurnoutPtr(votesCast, ballotsCast int) *float64 {
	pct, ok := Turnout(votesCast, ballotsCast)
	if !ok {
		return nil
	}
	return &pct
}
