package seal_test

import (
	"crypto/ed25519"
	"errors"
	"testing"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
)

// newTestGateway generates a fresh gateway keypair and returns the
// attestation side plus its verifier.
func newTestGateway(t *testing.T) (*seal.Gateway, *seal.ProofVerifier) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate gateway key: %v", err)
	}
	verifier, err := seal.NewProofVerifier(pub)
	if err != nil {
		t.Fatalf("NewProofVerifier: %v", err)
	}
	return seal.NewGateway(priv), verifier
}

func testAddr(t *testing.T, fill byte) (seal.Principal, seal.Contract) {
	t.Helper()

	var p seal.Principal
	var c seal.Contract
	for i := range p {
		p[i] = fill
		c[i] = fill ^ 0xff
	}
	return p, c
}

func testHandles(n int, fill byte) []seal.Handle {
	out := make([]seal.Handle, n)
	for i := range out {
		for j := range out[i] {
			out[i][j] = fill + byte(i)
		}
	}
	return out
}

func TestVerifyBatch_ValidProof(t *testing.T) {
	gw, verifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	if err := verifier.VerifyBatch(contract, submitter, handles, proof); err != nil {
		t.Fatalf("VerifyBatch: %v", err)
	}
}

func TestVerifyBatch_CorruptedHandleFailsWholeBatch(t *testing.T) {
	gw, verifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	// Flip one bit in one handle: every other handle is untouched,
	// but the batch as a whole must be rejected.
	handles[2][0] ^= 0x01

	err := verifier.VerifyBatch(contract, submitter, handles, proof)
	if !errors.Is(err, seal.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof, got %v", err)
	}
}

func TestVerifyBatch_ReorderedHandlesFail(t *testing.T) {
	gw, verifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	handles[0], handles[1] = handles[1], handles[0]

	if err := verifier.VerifyBatch(contract, submitter, handles, proof); !errors.Is(err, seal.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for reordered batch, got %v", err)
	}
}

func TestVerifyBatch_WrongSubmitterFails(t *testing.T) {
	gw, verifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	other, _ := testAddr(t, 0x22)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	if err := verifier.VerifyBatch(contract, other, handles, proof); !errors.Is(err, seal.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for wrong submitter, got %v", err)
	}
}

func TestVerifyBatch_WrongContractFails(t *testing.T) {
	gw, verifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	_, otherContract := testAddr(t, 0x22)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	if err := verifier.VerifyBatch(otherContract, submitter, handles, proof); !errors.Is(err, seal.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for wrong contract, got %v", err)
	}
}

func TestVerifyBatch_WrongGatewayKeyFails(t *testing.T) {
	gw, _ := newTestGateway(t)
	_, otherVerifier := newTestGateway(t)
	submitter, contract := testAddr(t, 0x11)
	handles := testHandles(4, 0xa0)

	proof := gw.Attest(contract, submitter, handles)

	if err := otherVerifier.VerifyBatch(contract, submitter, handles, proof); !errors.Is(err, seal.ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for foreign gateway key, got %v", err)
	}
}

func TestNewProofVerifier_RejectsBadKeySize(t *testing.T) {
	_, err := seal.NewProofVerifier(ed25519.PublicKey([]byte{1, 2, 3}))
	if !errors.Is(err, seal.ErrInvalidProofKey) {
		t.Fatalf("expected ErrInvalidProofKey, got %v", err)
	}
}
