package seal_test

import (
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
)

func TestParsePrincipal_RoundTrip(t *testing.T) {
	p, err := seal.ParsePrincipal("0x00112233445566778899aabbccddeeff00112233")
	if err != nil {
		t.Fatalf("ParsePrincipal: %v", err)
	}
	if got := p.String(); got != "0x00112233445566778899aabbccddeeff00112233" {
		t.Errorf("String: got %s", got)
	}

	// Prefix is optional, case is normalized.
	same, err := seal.ParsePrincipal("00112233445566778899AABBCCDDEEFF00112233")
	if err != nil {
		t.Fatalf("ParsePrincipal without prefix: %v", err)
	}
	if same != p {
		t.Error("prefixed and bare forms should parse to the same principal")
	}
}

func TestParsePrincipal_RejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "0x1234", "0xzz112233445566778899aabbccddeeff00112233"} {
		if _, err := seal.ParsePrincipal(in); !errors.Is(err, seal.ErrInvalidAddress) {
			t.Errorf("%q: expected ErrInvalidAddress, got %v", in, err)
		}
	}
}

func TestParseHandle_RejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "0xabcd", "0xnot-hex"} {
		if _, err := seal.ParseHandle(in); !errors.Is(err, seal.ErrInvalidHandle) {
			t.Errorf("%q: expected ErrInvalidHandle, got %v", in, err)
		}
	}
}

func TestHandle_RoundTrip(t *testing.T) {
	var h seal.Handle
	for i := range h {
		h[i] = byte(255 - i)
	}

	parsed, err := seal.ParseHandle(h.String())
	if err != nil {
		t.Fatalf("ParseHandle: %v", err)
	}
	if parsed != h {
		t.Errorf("round trip mismatch: %s != %s", parsed, h)
	}
}

func TestPrincipalFromPubKey_Deterministic(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	a := seal.PrincipalFromPubKey(key.PubKey())
	b := seal.PrincipalFromPubKey(key.PubKey())
	if a != b {
		t.Error("same key must derive the same principal")
	}
	if a.IsZero() {
		t.Error("derived principal must not be zero")
	}

	other, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate second key: %v", err)
	}
	if seal.PrincipalFromPubKey(other.PubKey()) == a {
		t.Error("distinct keys must derive distinct principals")
	}
}
