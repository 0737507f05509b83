package seal

import (
	"crypto/ed25519"
	"errors"
)

// ProofSize is the size of a gateway batch attestation (an Ed25519
// signature over the batch digest).
const ProofSize = ed25519.SignatureSize

var (
	ErrInvalidProof    = errors.New("invalid encryption proof for batch")
	ErrInvalidProofKey = errors.New("invalid gateway verification key")
)

// Proof attests that a batch of ciphertext handles was produced by the
// trusted encryption gateway for a declared (contract, submitter)
// pair. It covers the whole batch in order: there is no notion of a
// partially valid proof.
type Proof [ProofSize]byte

// batchDigest computes the domain-separated digest the gateway signs.
// All elements are fixed-size, so plain concatenation is unambiguous
// and the handle order is part of the digest.
func batchDigest(contract Contract, submitter Principal, handles []Handle) [32]byte {
	buf := make([]byte, 0, AddressSize*2+HandleSize*len(handles))
	buf = append(buf, contract[:]...)
	buf = append(buf, submitter[:]...)
	for _, h := range handles {
		buf = append(buf, h[:]...)
	}
	return keyedSum(batchDomainKey, buf)
}

// Gateway is the attestation side of the encryption gateway. The
// registry core never holds this; it lives off-core with the party
// that encrypts plaintext inputs, and in tests.
type Gateway struct {
	key ed25519.PrivateKey
}

func NewGateway(key ed25519.PrivateKey) *Gateway {
	return &Gateway{key: key}
}

// Attest signs the batch digest for (contract, submitter, handles).
func (g *Gateway) Attest(contract Contract, submitter Principal, handles []Handle) Proof {
	digest := batchDigest(contract, submitter, handles)

	var p Proof
	copy(p[:], ed25519.Sign(g.key, digest[:]))
	return p
}

// ProofVerifier checks gateway batch attestations against the
// gateway's public verification key.
type ProofVerifier struct {
	pub ed25519.PublicKey
}

func NewProofVerifier(pub ed25519.PublicKey) (*ProofVerifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, ErrInvalidProofKey
	}
	return &ProofVerifier{pub: pub}, nil
}

// VerifyBatch reports whether proof is the gateway's attestation for
// exactly this (contract, submitter, handles) triple. Verification is
// all-or-nothing over the full handle list: a single corrupted,
// missing, or reordered handle fails the whole batch. The check is a
// pure function of its arguments and is safe to retry.
func (v *ProofVerifier) VerifyBatch(contract Contract, submitter Principal, handles []Handle, proof Proof) error {
	digest := batchDigest(contract, submitter, handles)
	if !ed25519.Verify(v.pub, digest[:], proof[:]) {
		return ErrInvalidProof
	}
	return nil
}
