package events

import "strconv"

const (
	// TypeStakeIncreased is emitted when a voter's staked balance grows,
	// whether from stake_vote or an unstake cancellation.
	TypeStakeIncreased = "voting.stakeIncreased"
	// TypeVoteCast is emitted when vote_producer successfully applies a new
	// proxy/producer-list selection.
	TypeVoteCast = "voting.voteCast"
	// TypeProxyRegistered is emitted when an account becomes a proxy.
	TypeProxyRegistered = "voting.proxyRegistered"
	// TypeProxyUnregistered is emitted when a proxy steps down.
	TypeProxyUnregistered = "voting.proxyUnregistered"
)

// StakeIncreased captures a voting-power increase and the path it
// propagated through (direct producer list or a proxy).
type StakeIncreased struct {
	Voter     uint64
	Amount    uint64
	NewStaked uint64
	ViaProxy  uint64 // 0 if voting directly
}

// EventType implements Event.
func (StakeIncreased) EventType() string { return TypeStakeIncreased }

// Attributes renders the event as a flat attribute map.
func (e StakeIncreased) Attributes() map[string]string {
	attrs := map[string]string{
		"voter":     strconv.FormatUint(e.Voter, 10),
		"amount":    strconv.FormatUint(e.Amount, 10),
		"newStaked": strconv.FormatUint(e.NewStaked, 10),
	}
	if e.ViaProxy != 0 {
		attrs["viaProxy"] = strconv.FormatUint(e.ViaProxy, 10)
	}
	return attrs
}

// VoteCast captures a successful vote_producer action.
type VoteCast struct {
	Voter         uint64
	Proxy         uint64
	ProducerCount int
}

// EventType implements Event.
func (VoteCast) EventType() string { return TypeVoteCast }

// Attributes renders the event as a flat attribute map.
func (e VoteCast) Attributes() map[string]string {
	attrs := map[string]string{
		"voter":     strconv.FormatUint(e.Voter, 10),
		"producers": strconv.Itoa(e.ProducerCount),
	}
	if e.Proxy != 0 {
		attrs["proxy"] = strconv.FormatUint(e.Proxy, 10)
	}
	return attrs
}

// ProxyRegistered captures a successful register_proxy action.
type ProxyRegistered struct {
	Account uint64
}

// EventType implements Event.
func (ProxyRegistered) EventType() string { return TypeProxyRegistered }

// Attributes renders the event as a flat attribute map.
func (e ProxyRegistered) Attributes() map[string]string {
	return map[string]string{"account": strconv.FormatUint(e.Account, 10)}
}

// ProxyUnregistered captures a successful unregister_proxy action.
type ProxyUnregistered struct {
	Account uint64
}

// EventType implements Event.
func (ProxyUnregistered) EventType() string { return TypeProxyUnregistered }

// Attributes renders the event as a flat attribute map.
func (e ProxyUnregistered) Attributes() map[string]string {
	return map[string]string{"account": strconv.FormatUint(e.Account, 10)}
}
