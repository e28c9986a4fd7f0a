// Package crypto provides the human-readable account identifier encoding
// used throughout dposchain. Accounts are host-assigned 64-bit integers;
// this package only adds a stable textual representation for logs, events,
// and the read API.
package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix distinguishes account identifiers from other bech32-encoded
// values that might appear in the same log stream.
type AddressPrefix string

// AccountPrefix is the human-readable prefix used for account addresses.
const AccountPrefix AddressPrefix = "dps"

// Address wraps a host-assigned 64-bit account identifier with a stable
// textual encoding.
type Address struct {
	id uint64
}

// NewAddress wraps a raw account identifier.
func NewAddress(id uint64) Address {
	return Address{id: id}
}

// ID returns the underlying 64-bit account identifier.
func (a Address) ID() uint64 {
	return a.id
}

// String renders the account identifier as a bech32 string, matching the
// encoding style used for other addresses in the ecosystem this module was
// modeled on.
func (a Address) String() string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, a.id)
	conv, err := bech32.ConvertBits(buf, 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(AccountPrefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// DecodeAddress parses a bech32-encoded account identifier produced by
// Address.String.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 address: %w", err)
	}
	if AddressPrefix(prefix) != AccountPrefix {
		return Address{}, fmt.Errorf("crypto: unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: error converting bits: %w", err)
	}
	if len(conv) != 8 {
		return Address{}, fmt.Errorf("crypto: decoded address has unexpected length %d", len(conv))
	}
	return Address{id: binary.BigEndian.Uint64(conv)}, nil
}
