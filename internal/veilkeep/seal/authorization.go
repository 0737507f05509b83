package seal

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/codec"
)

const (
	// SignatureSize is the size of a compact recoverable secp256k1
	// signature: 1 recovery byte followed by R and S.
	SignatureSize = 65

	// EphemeralKeySize is the size of the requester-generated public
	// key the decryption backend re-encrypts results under. Opaque to
	// the registry; it is covered by the signature and forwarded.
	EphemeralKeySize = 32

	// DefaultWindow is the authorization validity period clients use
	// when they do not choose one explicitly.
	DefaultWindow = 7 * 24 * time.Hour
)

var (
	ErrBadSignature      = errors.New("authorization signature does not recover to requester")
	ErrInvalidKey        = errors.New("invalid key encoding")
	ErrEmptyContractList = errors.New("authorization names no contracts")
)

// Signature is a compact recoverable secp256k1 signature produced by
// the requester's wallet key.
type Signature [SignatureSize]byte

func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x")))
	if err != nil || len(b) != SignatureSize {
		return Signature{}, fmt.Errorf("%w: signature", ErrInvalidKey)
	}
	copy(sig[:], b)
	return sig, nil
}

func (s Signature) String() string { return "0x" + hex.EncodeToString(s[:]) }

// EphemeralKey is the requester's one-shot re-encryption public key.
type EphemeralKey [EphemeralKeySize]byte

func ParseEphemeralKey(s string) (EphemeralKey, error) {
	var k EphemeralKey
	b, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x")))
	if err != nil || len(b) != EphemeralKeySize {
		return EphemeralKey{}, fmt.Errorf("%w: ephemeral key", ErrInvalidKey)
	}
	copy(k[:], b)
	return k, nil
}

func (k EphemeralKey) String() string { return "0x" + hex.EncodeToString(k[:]) }

// Authorization is a requester-constructed, time-bounded, signed
// request to decrypt ciphertext handles. It is ephemeral: built per
// decryption request and never persisted.
//
// The signature covers the contract set, the ephemeral key, and the
// validity window. The requester principal is deliberately not part
// of the signed payload — it is what the signature recovers to, so a
// forged requester field can only produce a recovery mismatch.
type Authorization struct {
	Requester    Principal
	Contracts    []Contract
	EphemeralKey EphemeralKey
	Start        time.Time
	Duration     time.Duration
	Signature    Signature
}

// authPayload is the deterministic CBOR encoding of the signed fields.
// Integer keys keep the payload compact and order-stable.
type authPayload struct {
	Contracts       [][]byte `cbor:"1,keyasint"`
	EphemeralKey    []byte   `cbor:"2,keyasint"`
	Start           int64    `cbor:"3,keyasint"`
	DurationSeconds int64    `cbor:"4,keyasint"`
}

// WindowContains reports whether t falls inside [Start, Start+Duration).
func (a Authorization) WindowContains(t time.Time) bool {
	if a.Duration <= 0 {
		return false
	}
	return !t.Before(a.Start) && t.Before(a.Start.Add(a.Duration))
}

// Covers reports whether contract is in the authorization's signed
// contract set.
func (a Authorization) Covers(contract Contract) bool {
	for _, c := range a.Contracts {
		if c == contract {
			return true
		}
	}
	return false
}

// Digest computes the domain-separated Keccak-256 digest the wallet
// signs: a fixed ASCII prefix followed by the deterministic CBOR
// payload of the signed fields.
func (a Authorization) Digest() ([32]byte, error) {
	if len(a.Contracts) == 0 {
		return [32]byte{}, ErrEmptyContractList
	}

	payload := authPayload{
		Contracts:       make([][]byte, 0, len(a.Contracts)),
		EphemeralKey:    a.EphemeralKey[:],
		Start:           a.Start.Unix(),
		DurationSeconds: int64(a.Duration / time.Second),
	}
	for _, c := range a.Contracts {
		payload.Contracts = append(payload.Contracts, append([]byte(nil), c[:]...))
	}

	encoded, err := codec.Marshal(payload)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode authorization payload: %w", err)
	}
	return Keccak256(authorizationPrefix, encoded), nil
}

// VerifySignature recovers the signing key from the compact signature
// and checks that the derived principal matches Requester. Any field
// altered after signing changes the digest and therefore either fails
// recovery outright or recovers to a different principal.
func (a Authorization) VerifySignature() error {
	digest, err := a.Digest()
	if err != nil {
		return err
	}

	pub, _, err := ecdsa.RecoverCompact(a.Signature[:], digest[:])
	if err != nil {
		return ErrBadSignature
	}

	recovered := PrincipalFromPubKey(pub)
	if subtle.ConstantTimeCompare(recovered[:], a.Requester[:]) != 1 {
		return ErrBadSignature
	}
	return nil
}

// SignAuthorization fills in Requester and Signature from the wallet
// key. This is the client half of the protocol; the core only ever
// verifies. Exposed so the gateway harness and tests can construct
// valid authorizations.
func SignAuthorization(key *secp256k1.PrivateKey, a *Authorization) error {
	digest, err := a.Digest()
	if err != nil {
		return err
	}

	copy(a.Signature[:], ecdsa.SignCompact(key, digest[:], false))
	a.Requester = PrincipalFromPubKey(key.PubKey())
	return nil
}
