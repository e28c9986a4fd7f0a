// Package dispatch implements the action dispatcher (spec.md §4.7): it
// routes each of the nine authenticated actions to its handler and, on the
// block() action, runs the election tabulator followed by the unstake
// processor.
package dispatch

import (
	stderrors "errors"
	"fmt"

	coreerrors "dposchain/core/errors"
	"dposchain/core/types"
	"dposchain/native/election"
	"dposchain/native/producers"
	"dposchain/native/unstake"
	"dposchain/native/voting"
	"dposchain/observability/metrics"
)

// Dispatcher wires the producer registry, voting engine, unstake engine,
// and election tabulator behind a single entry point per action kind.
type Dispatcher struct {
	Producers *producers.Registry
	Voting    *voting.Engine
	Unstake   *unstake.Engine
	Election  *election.Tabulator
}

// New constructs a Dispatcher from its four collaborators.
func New(producerRegistry *producers.Registry, votingEngine *voting.Engine, unstakeEngine *unstake.Engine, tabulator *election.Tabulator) *Dispatcher {
	return &Dispatcher{Producers: producerRegistry, Voting: votingEngine, Unstake: unstakeEngine, Election: tabulator}
}

// RegisterProducerAction carries register_producer(producer, producer_key,
// prefs)'s parameters (spec.md §6, action 1).
type RegisterProducerAction struct {
	Producer    uint64
	ProducerKey []byte
	Preferences types.ProducerPreferences
}

// ChangeProducerPreferencesAction carries
// change_producer_preferences(producer, producer_key, prefs)'s parameters
// (spec.md §6, action 2).
type ChangeProducerPreferencesAction struct {
	Producer    uint64
	ProducerKey []byte
	Preferences types.ProducerPreferences
}

// StakeVoteAction carries stake_vote(voter, amount)'s parameters (spec.md
// §6, action 3).
type StakeVoteAction struct {
	Voter  uint64
	Amount uint64
}

// UnstakeVoteAction carries unstake_vote(voter, amount)'s parameters
// (spec.md §6, action 4).
type UnstakeVoteAction struct {
	Voter  uint64
	Amount uint64
}

// CancelUnstakeVoteRequestAction carries
// cancel_unstake_vote_request(request_id)'s parameters (spec.md §6, action
// 5).
type CancelUnstakeVoteRequestAction struct {
	RequestID uint64
}

// VoteProducerAction carries vote_producer(voter, proxy, producers[])'s
// parameters (spec.md §6, action 6).
type VoteProducerAction struct {
	Voter     uint64
	Proxy     uint64
	Producers []uint64
}

// RegisterProxyAction carries register_proxy(proxy_to_register)'s
// parameters (spec.md §6, action 7).
type RegisterProxyAction struct {
	Account uint64
}

// UnregisterProxyAction carries unregister_proxy(proxy_to_unregister)'s
// parameters (spec.md §6, action 8).
type UnregisterProxyAction struct {
	Account uint64
}

// BlockAction carries block()'s (empty) parameters (spec.md §6, action 9).
type BlockAction struct{}

// Dispatch routes action to its handler based on its concrete type,
// recording a dposchain_actions_handled_total/dposchain_action_errors_total
// observation for every attempt. An unrecognized action type is a caller
// bug, not a domain error, so it returns a plain error rather than one of
// the core/errors sentinels (and is not counted as an action).
func (d *Dispatcher) Dispatch(action any) error {
	kind, err := d.dispatch(action)
	if kind == "" {
		return err
	}
	if err != nil {
		metrics.Election().ObserveActionError(kind, sentinelName(err))
		return err
	}
	metrics.Election().ObserveAction(kind)
	return nil
}

func (d *Dispatcher) dispatch(action any) (string, error) {
	switch a := action.(type) {
	case RegisterProducerAction:
		return "register_producer", d.Producers.Register(a.Producer, a.ProducerKey, a.Preferences)
	case ChangeProducerPreferencesAction:
		return "change_producer_preferences", d.Producers.ChangePreferences(a.Producer, a.ProducerKey, a.Preferences)
	case StakeVoteAction:
		return "stake_vote", d.Voting.StakeVote(a.Voter, a.Amount)
	case UnstakeVoteAction:
		return "unstake_vote", d.Unstake.UnstakeVote(a.Voter, a.Amount)
	case CancelUnstakeVoteRequestAction:
		return "cancel_unstake_vote_request", d.Unstake.CancelUnstakeVoteRequest(a.RequestID)
	case VoteProducerAction:
		return "vote_producer", d.Voting.VoteProducer(a.Voter, a.Proxy, a.Producers)
	case RegisterProxyAction:
		return "register_proxy", d.Voting.RegisterProxy(a.Account)
	case UnregisterProxyAction:
		return "unregister_proxy", d.Voting.UnregisterProxy(a.Account)
	case BlockAction:
		return "block", d.Block()
	default:
		return "", fmt.Errorf("dispatch: unrecognized action type %T", action)
	}
}

// sentinels lists the core/errors values Dispatch classifies action
// failures against for the dposchain_action_errors_total metric.
var sentinels = []struct {
	name string
	err  error
}{
	{"auth", coreerrors.ErrAuth},
	{"already_registered", coreerrors.ErrAlreadyRegistered},
	{"not_registered", coreerrors.ErrNotRegistered},
	{"already_proxy", coreerrors.ErrAlreadyProxy},
	{"not_proxy", coreerrors.ErrNotProxy},
	{"delegates_to_proxy", coreerrors.ErrDelegatesToProxy},
	{"bad_amount", coreerrors.ErrBadAmount},
	{"overstake", coreerrors.ErrOverstake},
	{"quota_exceeded", coreerrors.ErrQuotaExceeded},
	{"bad_producer_list", coreerrors.ErrBadProducerList},
	{"inactive_producer", coreerrors.ErrInactiveProducer},
	{"no_stake", coreerrors.ErrNoStake},
	{"corruption", coreerrors.ErrCorruption},
	{"request_not_found", coreerrors.ErrRequestNotFound},
}

func sentinelName(err error) string {
	for _, s := range sentinels {
		if stderrors.Is(err, s.err) {
			return s.name
		}
	}
	return "other"
}

// Block runs the per-block maintenance hook: the election tabulator first,
// then the unstake processor, per spec.md §4.7's fixed ordering.
func (d *Dispatcher) Block() error {
	if err := d.Election.Run(); err != nil {
		return err
	}
	return d.Unstake.ProcessRequests()
}
