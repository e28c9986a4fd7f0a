// Package voting implements the voter/proxy registry and the vote
// aggregation engine (spec.md §4.2-§4.3, §4.5): stake_vote,
// increase_voting_power, vote_producer, register_proxy, unregister_proxy.
package voting

import (
	"fmt"
	"log/slog"

	"github.com/holiman/uint256"

	"dposchain/core/errors"
	"dposchain/core/events"
	"dposchain/core/host"
	"dposchain/core/store"
	"dposchain/core/types"
	"dposchain/crypto"
)

// MaxVotedProducers is the hard limit on the length of a direct producer
// vote list (spec.md §5).
const MaxVotedProducers = 30

// Engine implements stake_vote, vote_producer, and proxy (de)registration
// on top of the voter and producer stores.
type Engine struct {
	voters        store.VoterStore
	producers     store.ProducerStore
	configs       store.ProducerConfigStore
	authority     host.AuthorityChecker
	clock         host.Clock
	transferer    host.TokenTransferer
	notifier      host.RecipientNotifier
	emitter       events.Emitter
	log           *slog.Logger
	systemAccount uint64
}

// New constructs a voting Engine. A nil emitter defaults to a no-op
// emitter and a nil logger defaults to slog.Default().
func New(
	voters store.VoterStore,
	producers store.ProducerStore,
	configs store.ProducerConfigStore,
	authority host.AuthorityChecker,
	clock host.Clock,
	transferer host.TokenTransferer,
	notifier host.RecipientNotifier,
	emitter events.Emitter,
	log *slog.Logger,
	systemAccount uint64,
) *Engine {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		voters: voters, producers: producers, configs: configs,
		authority: authority, clock: clock, transferer: transferer,
		notifier: notifier, emitter: emitter, log: log, systemAccount: systemAccount,
	}
}

// StakeVote handles stake_vote(voter, amount): transfers amount tokens to
// the system account then increases voting power.
func (e *Engine) StakeVote(voter uint64, amount uint64) error {
	if !e.authority.HasAuthority(voter) {
		return fmt.Errorf("%w: stake_vote requires voter authority", errors.ErrAuth)
	}
	if amount == 0 {
		return fmt.Errorf("%w: stake_vote amount must be positive", errors.ErrBadAmount)
	}
	if err := e.transferer.Transfer(voter, e.systemAccount, amount, "stake for voting"); err != nil {
		return err
	}
	return e.IncreaseVotingPower(voter, amount)
}

// IncreaseVotingPower implements spec.md §4.2's increase_voting_power,
// shared by stake_vote and unstake cancellation. It upserts the voter
// record, propagates the stake delta to the proxy (if any), and then to the
// target producer list.
func (e *Engine) IncreaseVotingPower(voter uint64, amount uint64) error {
	acv, found, err := e.voters.Find(voter)
	if err != nil {
		return err
	}
	now := e.clock.Now().Unix()
	if !found {
		acv = types.NewVoter(voter)
		acv.Staked = amount
		acv.LastUpdate = now
	} else {
		acv.Staked += amount
		acv.LastUpdate = now
	}
	if err := e.voters.Put(acv); err != nil {
		return err
	}

	var targetProducers []uint64
	var viaProxy uint64
	if acv.Proxy != 0 {
		proxy, found, err := e.voters.Find(acv.Proxy)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: proxy %d missing for voter %d", errors.ErrCorruption, acv.Proxy, voter)
		}
		proxy.ProxiedVotes = new(uint256.Int).AddUint64(proxy.ProxiedVotes, amount)
		if err := e.voters.Put(proxy); err != nil {
			return err
		}
		viaProxy = acv.Proxy
		// Votes accrue on the proxy's proxied_votes regardless, but only
		// propagate to producers while the proxy is currently active
		// (spec.md §4.2 note: unregistered proxies accrue but don't
		// propagate until they re-register or the voter re-delegates).
		if proxy.IsProxy {
			targetProducers = proxy.Producers
		}
	} else {
		targetProducers = acv.Producers
	}

	if err := e.applyVoteDelta(targetProducers, int64(amount)); err != nil {
		return err
	}

	viaProxyAddr := ""
	if viaProxy != 0 {
		viaProxyAddr = crypto.NewAddress(viaProxy).String()
	}
	e.log.Debug("increase_voting_power applied", "voter", crypto.NewAddress(voter).String(), "amount", amount, "viaProxy", viaProxyAddr)
	e.emitter.Emit(events.StakeIncreased{Voter: voter, Amount: amount, NewStaked: acv.Staked, ViaProxy: viaProxy})
	return nil
}

// applyVoteDelta adds delta (positive or negative) to total_votes for each
// producer in ids, in the supplied (sorted) order, so 128-bit aggregates
// stay bit-exactly reproducible across implementations (spec.md §4.3).
// Fails ErrCorruption if any listed producer record is missing.
func (e *Engine) applyVoteDelta(ids []uint64, delta int64) error {
	for _, id := range ids {
		producer, found, err := e.producers.Find(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: producer %d", errors.ErrCorruption, id)
		}
		if delta >= 0 {
			producer.TotalVotes = new(uint256.Int).AddUint64(producer.TotalVotes, uint64(delta))
		} else {
			producer.TotalVotes = new(uint256.Int).SubUint64(producer.TotalVotes, uint64(-delta))
		}
		if err := e.producers.Put(producer); err != nil {
			return err
		}
	}
	return nil
}

// VoteProducer handles vote_producer(voter, proxy, producers) per
// spec.md §4.3.
func (e *Engine) VoteProducer(voter uint64, proxy uint64, producerIDs []uint64) error {
	if !e.authority.HasAuthority(voter) {
		return fmt.Errorf("%w: vote_producer requires voter authority", errors.ErrAuth)
	}

	if proxy != 0 {
		if len(producerIDs) != 0 {
			return fmt.Errorf("%w: cannot vote for producers and a proxy at the same time", errors.ErrBadProducerList)
		}
	} else {
		if len(producerIDs) > MaxVotedProducers {
			return fmt.Errorf("%w: attempt to vote for too many producers", errors.ErrBadProducerList)
		}
		if !types.SortedUnique(producerIDs) {
			return fmt.Errorf("%w: producer votes must be sorted and unique", errors.ErrBadProducerList)
		}
	}

	ptr, found, err := e.voters.Find(voter)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no stake to vote", errors.ErrNoStake)
	}
	if ptr.IsProxy && proxy != 0 {
		return fmt.Errorf("%w: accounts elected to be proxy may not delegate to another proxy", errors.ErrDelegatesToProxy)
	}

	var newProxyRecord *types.Voter
	if proxy != 0 {
		newProxyRecord, found, err = e.voters.Find(proxy)
		if err != nil {
			return err
		}
		if !found || !newProxyRecord.IsProxy {
			return fmt.Errorf("%w: selected proxy has not registered as a proxy", errors.ErrNotProxy)
		}
	}

	// Old side.
	var oldProducers []uint64
	var oldProxyRecord *types.Voter
	if ptr.Proxy != 0 {
		if ptr.Proxy == proxy && proxy != 0 {
			// Short-circuit: the source treats an unchanged nonzero proxy
			// as a complete no-op, performing no mutation at all.
			return nil
		}
		oldProxyRecord, found, err = e.voters.Find(ptr.Proxy)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: old proxy %d missing for voter %d", errors.ErrCorruption, ptr.Proxy, voter)
		}
		if oldProxyRecord.IsProxy {
			oldProducers = oldProxyRecord.Producers
		}
	} else {
		oldProducers = ptr.Producers
	}

	// New side.
	var newProducers []uint64
	if proxy != 0 {
		newProducers = newProxyRecord.Producers
	} else {
		newProducers = producerIDs
	}

	revoked := types.SetDifference(oldProducers, newProducers)
	elected := types.SetDifference(newProducers, oldProducers)

	for _, id := range revoked {
		producer, found, err := e.producers.Find(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: producer %d", errors.ErrCorruption, id)
		}
		producer.TotalVotes = new(uint256.Int).SubUint64(producer.TotalVotes, ptr.Staked)
		if err := e.producers.Put(producer); err != nil {
			return err
		}
	}
	for _, id := range elected {
		producer, found, err := e.producers.Find(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: producer %d", errors.ErrCorruption, id)
		}
		if proxy == 0 {
			active, err := e.isActive(id)
			if err != nil {
				return err
			}
			if !active {
				return fmt.Errorf("%w: producer %d", errors.ErrInactiveProducer, id)
			}
		}
		producer.TotalVotes = new(uint256.Int).AddUint64(producer.TotalVotes, ptr.Staked)
		if err := e.producers.Put(producer); err != nil {
			return err
		}
	}

	if oldProxyRecord != nil {
		oldProxyRecord.ProxiedVotes = new(uint256.Int).SubUint64(oldProxyRecord.ProxiedVotes, ptr.Staked)
		if err := e.voters.Put(oldProxyRecord); err != nil {
			return err
		}
	}
	if newProxyRecord != nil {
		newProxyRecord.ProxiedVotes = new(uint256.Int).AddUint64(newProxyRecord.ProxiedVotes, ptr.Staked)
		if err := e.voters.Put(newProxyRecord); err != nil {
			return err
		}
	}

	ptr.Proxy = proxy
	ptr.Producers = append([]uint64(nil), producerIDs...)
	ptr.LastUpdate = e.clock.Now().Unix()
	if err := e.voters.Put(ptr); err != nil {
		return err
	}

	if proxy != 0 && e.notifier != nil {
		e.notifier.NotifyRecipient(proxy)
	}

	proxyAddr := ""
	if proxy != 0 {
		proxyAddr = crypto.NewAddress(proxy).String()
	}
	e.log.Debug("vote_producer applied", "voter", crypto.NewAddress(voter).String(), "proxy", proxyAddr, "producers", len(producerIDs))
	e.emitter.Emit(events.VoteCast{Voter: voter, Proxy: proxy, ProducerCount: len(producerIDs)})
	return nil
}

func (e *Engine) isActive(owner uint64) (bool, error) {
	cfg, found, err := e.configs.Find(owner)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return cfg.Active(), nil
}

// DecreaseVotingPower mirrors IncreaseVotingPower with a negative delta; it
// is used by the unstake lifecycle to reverse vote propagation without
// touching the voter's staked balance (the caller adjusts that separately).
func (e *Engine) DecreaseVotingPower(voter uint64, amount uint64) error {
	acv, found, err := e.voters.Find(voter)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: no stake on file for voter %d", errors.ErrNoStake, voter)
	}

	var targetProducers []uint64
	if acv.Proxy != 0 {
		proxy, found, err := e.voters.Find(acv.Proxy)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: proxy %d missing for voter %d", errors.ErrCorruption, acv.Proxy, voter)
		}
		proxy.ProxiedVotes = new(uint256.Int).SubUint64(proxy.ProxiedVotes, amount)
		if err := e.voters.Put(proxy); err != nil {
			return err
		}
		if proxy.IsProxy {
			targetProducers = proxy.Producers
		}
	} else {
		targetProducers = acv.Producers
	}

	return e.applyVoteDelta(targetProducers, -int64(amount))
}

// VoterRecord exposes a read-only copy of a voter record for query paths
// (the read API, cancellation bookkeeping).
func (e *Engine) VoterRecord(owner uint64) (*types.Voter, bool, error) {
	return e.voters.Find(owner)
}
