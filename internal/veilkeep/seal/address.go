package seal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// AddressSize is the size of a ledger address (principal or contract).
const AddressSize = 20

var ErrInvalidAddress = errors.New("invalid address")

// Principal is the 20-byte ledger identity of a signing party: the
// trailing 20 bytes of the Keccak-256 hash of its uncompressed
// secp256k1 public key. Principals are what signatures recover to and
// what the grant table stores.
type Principal [AddressSize]byte

// Contract is the 20-byte ledger address of a registry instance.
// Same wire shape as Principal, but a distinct type so a contract
// address can never be passed where a signing identity is expected.
type Contract [AddressSize]byte

// PrincipalFromPubKey derives the principal for a secp256k1 public key.
func PrincipalFromPubKey(pub *secp256k1.PublicKey) Principal {
	// Hash the 64-byte point (uncompressed serialization minus the
	// 0x04 prefix), keep the low 20 bytes.
	digest := Keccak256(pub.SerializeUncompressed()[1:])

	var p Principal
	copy(p[:], digest[12:])
	return p
}

func ParsePrincipal(s string) (Principal, error) {
	var p Principal
	if err := parseAddress(p[:], s); err != nil {
		return Principal{}, err
	}
	return p, nil
}

func ParseContract(s string) (Contract, error) {
	var c Contract
	if err := parseAddress(c[:], s); err != nil {
		return Contract{}, err
	}
	return c, nil
}

func (p Principal) String() string { return formatAddress(p[:]) }
func (p Principal) IsZero() bool   { return p == Principal{} }

func (p Principal) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Principal) UnmarshalText(text []byte) error {
	return parseAddress(p[:], string(text))
}

func (c Contract) String() string { return formatAddress(c[:]) }
func (c Contract) IsZero() bool   { return c == Contract{} }

func (c Contract) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Contract) UnmarshalText(text []byte) error {
	return parseAddress(c[:], string(text))
}

func formatAddress(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func parseAddress(dst []byte, s string) error {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if len(b) != AddressSize {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	copy(dst, b)
	return nil
}
