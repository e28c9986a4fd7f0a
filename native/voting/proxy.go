package voting

import (
	"fmt"

	"github.com/holiman/uint256"

	"dposchain/core/errors"
	"dposchain/core/events"
	"dposchain/core/types"
	"dposchain/crypto"
)

// RegisterProxy handles register_proxy(account) per spec.md §4.5. If no
// voter record exists one is created with is_proxy=1 and zero stake. If a
// record exists, it must not already be a proxy and must not itself
// delegate to another proxy.
func (e *Engine) RegisterProxy(account uint64) error {
	if !e.authority.HasAuthority(account) {
		return fmt.Errorf("%w: register_proxy requires account authority", errors.ErrAuth)
	}
	now := e.clock.Now().Unix()
	existing, found, err := e.voters.Find(account)
	if err != nil {
		return err
	}
	if !found {
		voter := types.NewVoter(account)
		voter.IsProxy = true
		voter.LastUpdate = now
		if err := e.voters.Put(voter); err != nil {
			return err
		}
		e.log.Debug("register_proxy applied (new voter)", "account", crypto.NewAddress(account).String())
		e.emitter.Emit(events.ProxyRegistered{Account: account})
		return nil
	}

	if existing.IsProxy {
		return fmt.Errorf("%w: account %d", errors.ErrAlreadyProxy, account)
	}
	if existing.Proxy != 0 {
		return fmt.Errorf("%w: account %d delegates to a proxy", errors.ErrDelegatesToProxy, account)
	}
	existing.IsProxy = true
	existing.LastUpdate = now
	// existing.ProxiedVotes may be non-zero here if this account was
	// previously a proxy and unregistered; that residual value is kept
	// (spec.md §3's retention invariant, §9's design note) but does not
	// automatically propagate back to its current Producers list until a
	// delegator re-votes or this proxy re-votes for itself.
	if err := e.voters.Put(existing); err != nil {
		return err
	}
	e.log.Debug("register_proxy applied", "account", crypto.NewAddress(account).String())
	e.emitter.Emit(events.ProxyRegistered{Account: account})
	return nil
}

// UnregisterProxy handles unregister_proxy(account) per spec.md §4.5: every
// producer the proxy currently votes for loses proxied_votes worth of
// total_votes, is_proxy is cleared, and proxied_votes/producers are
// retained for a possible future re-registration.
func (e *Engine) UnregisterProxy(account uint64) error {
	if !e.authority.HasAuthority(account) {
		return fmt.Errorf("%w: unregister_proxy requires account authority", errors.ErrAuth)
	}
	proxy, found, err := e.voters.Find(account)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: proxy %d", errors.ErrNotProxy, account)
	}
	if !proxy.IsProxy {
		return fmt.Errorf("%w: account %d", errors.ErrNotProxy, account)
	}

	for _, id := range proxy.Producers {
		producer, found, err := e.producers.Find(id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: producer %d", errors.ErrCorruption, id)
		}
		producer.TotalVotes = new(uint256.Int).Sub(producer.TotalVotes, proxy.ProxiedVotes)
		if err := e.producers.Put(producer); err != nil {
			return err
		}
	}

	proxy.IsProxy = false
	proxy.LastUpdate = e.clock.Now().Unix()
	if err := e.voters.Put(proxy); err != nil {
		return err
	}

	e.log.Debug("unregister_proxy applied", "account", crypto.NewAddress(account).String())
	e.emitter.Emit(events.ProxyUnregistered{Account: account})
	return nil
}
