// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package analysis builds election-wide reports on top of the per-race
aggregator: party control by office, closest races, margin shifts between
elections, and turnout trends.

# Normalized margins

Cross-race comparisons use the normalized two-party margin

	(R - D) / (R + D) * 100

in points, positive meaning a Republican lead. Races where either major
party received no votes are excluded from margin analyses; an uncontested
race has no meaningful margin. ClassifyLean maps margins to labels at the
3/8/15-point thresholds (Toss-up through Safe).

# Error isolation

Election-wide reports never fail because one race is malformed.
PartyControl logs and skips a race whose ranking errors; the rest of the
report still computes. Seats tied at the cutoff are reported in their own
Undetermined column rather than being assigned to a party.

# Turnout

TurnoutTrends uses the top-of-ticket race (President, or Governor in
midterm years) as the votes-cast numerator and the recorded ballots-cast
figure as the denominator. Municipalities without a recorded figure get a
nil turnout, never a fabricated 0%.
*/
package analysis
