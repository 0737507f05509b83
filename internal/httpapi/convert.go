package httpapi

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

// parseProof decodes a 0x-prefixed hex gateway proof.
func parseProof(s string) (seal.Proof, error) {
	var p seal.Proof
	b, err := hex.DecodeString(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "0x")))
	if err != nil {
		return seal.Proof{}, fmt.Errorf("proof is not valid hex")
	}
	if len(b) != seal.ProofSize {
		return seal.Proof{}, fmt.Errorf("proof must be %d bytes, got %d", seal.ProofSize, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// decryptRequestToDomain converts the wire decryption request into the
// signed authorization and pair list the protocol operates on.
func decryptRequestToDomain(req types.DecryptRequest) (seal.Authorization, []backend.Pair, error) {
	requester, err := seal.ParsePrincipal(req.Requester)
	if err != nil {
		return seal.Authorization{}, nil, err
	}

	contracts := make([]seal.Contract, 0, len(req.Contracts))
	for _, raw := range req.Contracts {
		c, err := seal.ParseContract(raw)
		if err != nil {
			return seal.Authorization{}, nil, err
		}
		contracts = append(contracts, c)
	}

	ephemeralKey, err := seal.ParseEphemeralKey(req.EphemeralKey)
	if err != nil {
		return seal.Authorization{}, nil, err
	}
	signature, err := seal.ParseSignature(req.Signature)
	if err != nil {
		return seal.Authorization{}, nil, err
	}

	// An omitted duration means the client signed with the default
	// window; the digest only matches if the server assumes the same.
	duration := time.Duration(req.DurationSeconds) * time.Second
	if req.DurationSeconds == 0 {
		duration = seal.DefaultWindow
	}

	auth := seal.Authorization{
		Requester:    requester,
		Contracts:    contracts,
		EphemeralKey: ephemeralKey,
		Start:        time.Unix(req.StartUnix, 0).UTC(),
		Duration:     duration,
		Signature:    signature,
	}

	pairs := make([]backend.Pair, 0, len(req.Pairs))
	for _, p := range req.Pairs {
		h, err := seal.ParseHandle(p.Handle)
		if err != nil {
			return seal.Authorization{}, nil, err
		}
		c, err := seal.ParseContract(p.Contract)
		if err != nil {
			return seal.Authorization{}, nil, err
		}
		pairs = append(pairs, backend.Pair{Handle: h, Contract: c})
	}

	return auth, pairs, nil
}

func hexEncode(b []byte) string { return hex.EncodeToString(b) }
