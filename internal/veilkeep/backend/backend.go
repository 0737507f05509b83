// Package backend defines the registry's view of the external
// decryption service. The registry is purely an authorization gate:
// it forwards handle sets that passed every gate and returns the
// backend's response untouched. Plaintext never transits the core.
package backend

import (
	"context"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
)

// Pair is one requested decryption target: a ciphertext handle and
// the contract it lives on.
type Pair struct {
	Handle   seal.Handle   `json:"handle"`
	Contract seal.Contract `json:"contract"`
}

// Request carries a fully authorized decryption request to the
// backend: the requested pairs plus the complete signed authorization
// so the backend can perform its own end-to-end verification.
type Request struct {
	Authorization seal.Authorization `json:"-"`
	Pairs         []Pair             `json:"pairs"`
}

// Ticket is the backend's per-handle response: the value re-encrypted
// under the requester's ephemeral key. Opaque to the registry.
type Ticket struct {
	ID     string      `json:"id"`
	Handle seal.Handle `json:"handle"`
	Sealed []byte      `json:"sealed"`
}

// Decryptor is the external decryption capability. Implementations
// must not mutate registry state; the call is a terminal side effect
// of an authorized request.
type Decryptor interface {
	Decrypt(ctx context.Context, req Request) (map[seal.Handle]Ticket, error)
}
