package service_test

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend/local"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/service"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store/memory"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

// testEnv wires the full service graph over in-memory stores, with a
// real gateway keypair so tests can mint through the proof gate.
type testEnv struct {
	records  *memory.RecordStore
	handles  *memory.HandleStore
	grants   *memory.GrantStore
	events   *memory.EventStore
	gateway  *seal.Gateway
	contract seal.Contract
	backend  *local.Decryptor

	registry *service.RegistryService
	access   *service.AccessService
	decrypt  *service.DecryptService
}

func newTestEnv(t *testing.T, enableRevocation bool) *testEnv {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate gateway key: %v", err)
	}
	verifier, err := seal.NewProofVerifier(pub)
	if err != nil {
		t.Fatalf("NewProofVerifier: %v", err)
	}

	contract, err := seal.ParseContract("0x0000000000000000000000000000000000000c0f")
	if err != nil {
		t.Fatalf("ParseContract: %v", err)
	}

	env := &testEnv{
		records:  memory.NewRecordStore(),
		handles:  memory.NewHandleStore(),
		grants:   memory.NewGrantStore(),
		events:   memory.NewEventStore(),
		gateway:  seal.NewGateway(priv),
		contract: contract,
		backend:  local.New(),
	}

	env.registry = service.NewRegistryService(env.records, env.handles, env.events, verifier, contract)
	env.access = service.NewAccessService(env.records, env.grants, env.events, enableRevocation)
	env.decrypt = service.NewDecryptService(env.handles, env.access, env.events, contract, env.backend)
	return env
}

// mintRecord mints a record for owner through the real proof gate.
// fill seeds the handle bytes so successive mints get distinct handles.
func (env *testEnv) mintRecord(t *testing.T, owner seal.Principal, fill byte) (uint64, []seal.Handle) {
	t.Helper()

	handles := newHandles(fill)
	proof := env.gateway.Attest(env.contract, owner, handles)

	id, err := env.registry.Mint(context.Background(), owner, owner, handles, proof)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return id, handles
}

func newHandles(fill byte) []seal.Handle {
	out := make([]seal.Handle, types.AttributeCount)
	for i := range out {
		for j := range out[i] {
			out[i][j] = fill + byte(i)
		}
	}
	return out
}

func principal(fill byte) seal.Principal {
	var p seal.Principal
	for i := range p {
		p[i] = fill
	}
	return p
}

func newWalletKey(t *testing.T) *secp256k1.PrivateKey {
	t.Helper()

	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate wallet key: %v", err)
	}
	return key
}

// signedAuthorization builds and signs a week-long authorization over
// the env contract starting at start.
func (env *testEnv) signedAuthorization(t *testing.T, key *secp256k1.PrivateKey, start time.Time) seal.Authorization {
	t.Helper()

	var ephemeral seal.EphemeralKey
	for i := range ephemeral {
		ephemeral[i] = byte(i)
	}

	auth := seal.Authorization{
		Contracts:    []seal.Contract{env.contract},
		EphemeralKey: ephemeral,
		Start:        start,
		Duration:     seal.DefaultWindow,
	}
	if err := seal.SignAuthorization(key, &auth); err != nil {
		t.Fatalf("SignAuthorization: %v", err)
	}
	return auth
}
