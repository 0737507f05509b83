// Package local provides an in-process stand-in for the external
// decryption service, used in dev environments and tests. It issues
// opaque tickets without any real cryptography; the sealed bytes are
// derived from the handle so tests can assert tickets round-trip.
package local

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
)

type Decryptor struct {
	mu     sync.Mutex
	issued []backend.Ticket
}

func New() *Decryptor {
	return &Decryptor{}
}

func (d *Decryptor) Decrypt(_ context.Context, req backend.Request) (map[seal.Handle]backend.Ticket, error) {
	out := make(map[seal.Handle]backend.Ticket, len(req.Pairs))

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, pair := range req.Pairs {
		t := backend.Ticket{
			ID:     uuid.NewString(),
			Handle: pair.Handle,
			Sealed: append([]byte(nil), pair.Handle[:]...),
		}
		out[pair.Handle] = t
		d.issued = append(d.issued, t)
	}
	return out, nil
}

// Issued returns a copy of every ticket handed out. Test-only helper.
func (d *Decryptor) Issued() []backend.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]backend.Ticket, len(d.issued))
	copy(out, d.issued)
	return out
}
