package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/config"
	dbpkg "github.com/oskarnyberg/veilkeep/internal/db"
	"github.com/oskarnyberg/veilkeep/internal/httpapi"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/backend/local"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/service"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store/memory"
	sqlitestore "github.com/oskarnyberg/veilkeep/internal/veilkeep/store/sqlite"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

// devContractAddress is the registry address used when dev starts
// without an explicit one configured.
const devContractAddress = "0x0000000000000000000000000000000000000c0f"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New(os.Stdout, "veilkeep-server ", log.LstdFlags|log.LUTC)

	if cfg.ContractAddress == "" {
		if cfg.Env == "prod" {
			logger.Fatalf("prod requires VEILKEEP_CONTRACT_ADDRESS")
		}
		cfg.ContractAddress = devContractAddress
	}
	contract, err := seal.ParseContract(cfg.ContractAddress)
	if err != nil {
		logger.Fatalf("contract address: %v", err)
	}

	verifier, devGateway, err := gatewayVerifier(cfg, logger)
	if err != nil {
		logger.Fatalf("gateway key: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores
	var (
		records store.RecordStore
		handles store.HandleStore
		grants  store.GrantStore
		events  store.EventStore
	)
	if cfg.Env == "prod" {
		sqlDB, err := dbpkg.Open(ctx, dbpkg.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			logger.Fatalf("open db: %v", err)
		}
		defer sqlDB.Close()

		writer := dbpkg.NewWorker(sqlDB)
		defer writer.Close()

		records = sqlitestore.NewRecordStore(sqlDB, writer)
		handles = sqlitestore.NewHandleStore(sqlDB, writer)
		grants = sqlitestore.NewGrantStore(sqlDB, writer)
		events = sqlitestore.NewEventStore(sqlDB, writer)
	} else {
		records = memory.NewRecordStore()
		handles = memory.NewHandleStore()
		grants = memory.NewGrantStore()
		events = memory.NewEventStore()
	}

	// External decryption backend
	var decryptor backend.Decryptor
	if cfg.BackendURL != "" {
		decryptor = backend.NewClient(cfg.BackendURL)
	} else {
		if cfg.Env == "prod" {
			logger.Fatalf("prod requires VEILKEEP_BACKEND_URL")
		}
		logger.Printf("no backend configured, using in-process local decryptor")
		decryptor = local.New()
	}

	// Services
	registrySvc := service.NewRegistryService(records, handles, events, verifier, contract)
	accessSvc := service.NewAccessService(records, grants, events, cfg.EnableRevocation)
	decryptSvc := service.NewDecryptService(handles, accessSvc, events, contract, decryptor)

	if devGateway != nil {
		if err := seedDev(ctx, registrySvc, devGateway, contract, logger); err != nil {
			logger.Printf("dev seed: %v", err)
		}
	}

	pruner := service.NewEventPruner(events, service.PrunerConfig{
		RetentionDays: cfg.AuditRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:          logger,
		Addr:            cfg.HTTPAddr,
		RegistryService: registrySvc,
		AccessService:   accessSvc,
		DecryptService:  decryptSvc,
	})

	go func() {
		logger.Printf("listening on %s (env=%s, contract=%s)", cfg.HTTPAddr, cfg.Env, contract)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// gatewayVerifier builds the proof verifier from config. Dev without
// a configured key generates an ephemeral gateway keypair, logs the
// private half so a local encryption gateway harness can attest mints,
// and returns the attestation side for dev seeding.
func gatewayVerifier(cfg config.Config, logger *log.Logger) (*seal.ProofVerifier, *seal.Gateway, error) {
	if cfg.GatewayPublicKey != "" {
		raw, err := hex.DecodeString(cfg.GatewayPublicKey)
		if err != nil {
			return nil, nil, err
		}
		verifier, err := seal.NewProofVerifier(ed25519.PublicKey(raw))
		return verifier, nil, err
	}

	if cfg.Env == "prod" {
		logger.Fatalf("prod requires VEILKEEP_GATEWAY_PUBLIC_KEY")
	}

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("generated ephemeral dev gateway key (private=%s)", hex.EncodeToString(priv.Seed()))

	verifier, err := seal.NewProofVerifier(pub)
	if err != nil {
		return nil, nil, err
	}
	return verifier, seal.NewGateway(priv), nil
}

// seedDev mints one demo record through the real proof gate so the dev
// API has data to poke at from first boot.
func seedDev(ctx context.Context, registry *service.RegistryService, gw *seal.Gateway, contract seal.Contract, logger *log.Logger) error {
	owner, err := seal.ParsePrincipal("0x00000000000000000000000000000000deadbeef")
	if err != nil {
		return err
	}

	handles := make([]seal.Handle, types.AttributeCount)
	for i := range handles {
		handles[i][0] = 0xd0
		handles[i][seal.HandleSize-1] = byte(i + 1)
	}
	proof := gw.Attest(contract, owner, handles)

	id, err := registry.Mint(ctx, owner, owner, handles, proof)
	if err != nil {
		return err
	}
	logger.Printf("seeded demo record %d (owner=%s)", id, owner)
	return nil
}
