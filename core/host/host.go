// Package host declares the external collaborators the producer election
// and voting state machine consumes but does not implement: authority
// checks, wall-clock time, inline token transfers, active-producer
// publication, and require-recipient notification. spec.md §1 and §6 place
// these squarely outside this module's scope; the core depends only on
// these interfaces so it can be embedded in any chain runtime that
// satisfies them.
package host

import (
	"time"

	"dposchain/core/types"
)

// AuthorityChecker reports whether the currently executing action carries
// the named account's authority.
type AuthorityChecker interface {
	HasAuthority(account uint64) bool
}

// Clock supplies the current wall-clock time used to stamp voter updates
// and schedule unstake refunds.
type Clock interface {
	Now() time.Time
}

// TokenTransferer performs an inline token transfer between two accounts.
// Implementations are expected to fail the enclosing action if the sender's
// balance is insufficient.
type TokenTransferer interface {
	Transfer(from, to uint64, amount uint64, memo string) error
}

// ActivePublisher receives the result of each election tabulation pass: the
// ordered list of elected producer account ids (length 0..21) and the
// median-position preference values the host may apply to chain
// parameters.
type ActivePublisher interface {
	PublishActive(ids []uint64, medians types.ProducerPreferences)
}

// RecipientNotifier mirrors the host's require_recipient primitive, used
// when a voter designates a proxy so the proxy's account observes the
// action.
type RecipientNotifier interface {
	NotifyRecipient(account uint64)
}

// SystemClock is the real wall-clock Clock implementation.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
