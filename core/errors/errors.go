// Package errors defines the stable error taxonomy surfaced by the
// producer election and voting state machine. Every handler failure is
// one of the sentinels below; callers use errors.Is against these values.
package errors

import stderrors "errors"

var (
	// ErrAuth indicates the action's required authority was not present.
	ErrAuth = stderrors.New("dposchain: missing authority")
	// ErrAlreadyRegistered indicates a producer registration for an owner
	// that already has a producer record.
	ErrAlreadyRegistered = stderrors.New("dposchain: producer already registered")
	// ErrNotRegistered indicates an operation referenced a producer that
	// has no producer record.
	ErrNotRegistered = stderrors.New("dposchain: producer not registered")
	// ErrAlreadyProxy indicates register_proxy was called for an account
	// that is already a proxy.
	ErrAlreadyProxy = stderrors.New("dposchain: account is already a proxy")
	// ErrNotProxy indicates an operation expected an account to be a
	// registered proxy and it was not.
	ErrNotProxy = stderrors.New("dposchain: account is not a proxy")
	// ErrDelegatesToProxy indicates an account that currently delegates to
	// a proxy attempted to register as a proxy itself.
	ErrDelegatesToProxy = stderrors.New("dposchain: account delegates to a proxy")
	// ErrBadAmount indicates a non-positive stake or unstake amount.
	ErrBadAmount = stderrors.New("dposchain: amount must be positive")
	// ErrOverstake indicates an unstake request exceeds the account's
	// available staked balance.
	ErrOverstake = stderrors.New("dposchain: unstake exceeds available stake")
	// ErrQuotaExceeded indicates an account already has the maximum number
	// of outstanding unstake requests.
	ErrQuotaExceeded = stderrors.New("dposchain: unstake request quota exceeded")
	// ErrBadProducerList indicates an unsorted, oversized, or
	// proxy-combined producer list was supplied to vote_producer.
	ErrBadProducerList = stderrors.New("dposchain: invalid producer list")
	// ErrInactiveProducer indicates a direct vote targeted a producer with
	// no active signing key.
	ErrInactiveProducer = stderrors.New("dposchain: producer is not active")
	// ErrNoStake indicates an action required an existing voter record and
	// none was found.
	ErrNoStake = stderrors.New("dposchain: no stake on file for account")
	// ErrCorruption indicates a referenced producer record is missing,
	// which violates an invariant the caller must treat as fatal.
	ErrCorruption = stderrors.New("dposchain: referenced producer record missing")
	// ErrRequestNotFound indicates a caller referenced an unstake request
	// id with no matching record. Unlike ErrCorruption this is ordinary
	// bad input (a stale or mistyped id), not a broken invariant, and is
	// not fatal.
	ErrRequestNotFound = stderrors.New("dposchain: unstake request not found")
)
