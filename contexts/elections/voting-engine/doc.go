// Package votingengine implements the ballot casting and results core of the
// elections context.
//
// The module owns the ballot log and its one-vote-per-voter-per-position
// guarantee, reconciliation of cached candidate tallies against that log,
// per-position results aggregation with tie handling, admin-gated winner
// declaration, and result export. Business rules live in application/domain
// layers; infrastructure stays behind ports and adapters.
package votingengine
