package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/oskarnyberg/veilkeep/internal/veilkeep/seal"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/service"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/store"
	"github.com/oskarnyberg/veilkeep/internal/veilkeep/types"
)

type Dependencies struct {
	Logger          *log.Logger
	Addr            string
	RegistryService *service.RegistryService
	AccessService   *service.AccessService
	DecryptService  *service.DecryptService
}

type Server struct {
	httpServer      *http.Server
	logger          *log.Logger
	mux             *http.ServeMux
	registryService *service.RegistryService
	accessService   *service.AccessService
	decryptService  *service.DecryptService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:          d.Logger,
		mux:             mux,
		registryService: d.RegistryService,
		accessService:   d.AccessService,
		decryptService:  d.DecryptService,
	}

	mux.HandleFunc("POST /v1/mint", s.handleMint)
	mux.HandleFunc("POST /v1/grant", s.handleGrant)
	mux.HandleFunc("POST /v1/revoke", s.handleRevoke)
	mux.HandleFunc("POST /v1/decrypt", s.handleDecrypt)
	mux.HandleFunc("GET /v1/records/{id}", s.handleGetRecord)
	mux.HandleFunc("GET /v1/records/{id}/handles/{slot}", s.handleGetHandle)
	mux.HandleFunc("GET /v1/stats", s.handleStats)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req types.MintRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	submitter, err := seal.ParsePrincipal(req.Submitter)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_submitter", err.Error())
		return
	}
	owner, err := seal.ParsePrincipal(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_owner", err.Error())
		return
	}

	handles := make([]seal.Handle, 0, len(req.Handles))
	for _, raw := range req.Handles {
		h, err := seal.ParseHandle(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_handle", err.Error())
			return
		}
		handles = append(handles, h)
	}

	proof, err := parseProof(req.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_proof_encoding", err.Error())
		return
	}

	id, err := s.registryService.Mint(r.Context(), submitter, owner, handles, proof)
	if err != nil {
		s.writeServiceError(w, "mint", err)
		return
	}

	writeJSON(w, http.StatusOK, types.MintResponse{
		OK:         true,
		RecordID:   id,
		Owner:      owner.String(),
		ServerTime: serverTime(),
	})
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	req, caller, slot, grantee, ok := s.decodeGrantShape(w, r)
	if !ok {
		return
	}

	if err := s.accessService.Grant(r.Context(), caller, req.RecordID, slot, grantee); err != nil {
		s.writeServiceError(w, "grant", err)
		return
	}

	writeJSON(w, http.StatusOK, types.GrantResponse{
		OK:         true,
		RecordID:   req.RecordID,
		Slot:       slot.String(),
		Grantee:    grantee.String(),
		ServerTime: serverTime(),
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	req, caller, slot, grantee, ok := s.decodeGrantShape(w, r)
	if !ok {
		return
	}

	if err := s.accessService.RevokeGrant(r.Context(), caller, req.RecordID, slot, grantee); err != nil {
		s.writeServiceError(w, "revoke", err)
		return
	}

	writeJSON(w, http.StatusOK, types.GrantResponse{
		OK:         true,
		RecordID:   req.RecordID,
		Slot:       slot.String(),
		Grantee:    grantee.String(),
		ServerTime: serverTime(),
	})
}

// decodeGrantShape parses the shared request body of grant and revoke.
func (s *Server) decodeGrantShape(w http.ResponseWriter, r *http.Request) (types.GrantRequest, seal.Principal, types.Slot, seal.Principal, bool) {
	var req types.GrantRequest
	if !decodeJSON(w, r, &req) {
		return req, seal.Principal{}, 0, seal.Principal{}, false
	}

	caller, err := seal.ParsePrincipal(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_caller", err.Error())
		return req, seal.Principal{}, 0, seal.Principal{}, false
	}
	grantee, err := seal.ParsePrincipal(req.Grantee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_grantee", err.Error())
		return req, seal.Principal{}, 0, seal.Principal{}, false
	}
	slot, err := types.ParseSlot(req.Slot)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
		return req, seal.Principal{}, 0, seal.Principal{}, false
	}
	return req, caller, slot, grantee, true
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req types.DecryptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	auth, pairs, err := decryptRequestToDomain(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_authorization", err.Error())
		return
	}

	tickets, err := s.decryptService.RequestDecryption(r.Context(), auth, pairs)
	if err != nil {
		s.writeServiceError(w, "decrypt", err)
		return
	}

	out := make(map[string]types.Ticket, len(tickets))
	for h, t := range tickets {
		out[h.String()] = types.Ticket{
			ID:     t.ID,
			Handle: t.Handle.String(),
			Sealed: "0x" + hexEncode(t.Sealed),
		}
	}

	writeJSON(w, http.StatusOK, types.DecryptResponse{
		OK:         true,
		Tickets:    out,
		ServerTime: serverTime(),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	rec, handles, err := s.registryService.GetRecord(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, "get_record", err)
		return
	}

	out := make(map[string]string, types.AttributeCount)
	for slot := types.Slot(0); slot.Valid(); slot++ {
		out[slot.String()] = handles[slot].String()
	}

	writeJSON(w, http.StatusOK, types.RecordResponse{
		OK:        true,
		RecordID:  rec.ID,
		Owner:     rec.Owner.String(),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339Nano),
		Handles:   out,
	})
}

func (s *Server) handleGetHandle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	slot, err := types.ParseSlot(r.PathValue("slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
		return
	}

	h, err := s.registryService.GetHandle(r.Context(), id, slot)
	if err != nil {
		s.writeServiceError(w, "get_handle", err)
		return
	}

	writeJSON(w, http.StatusOK, types.HandleResponse{
		OK:       true,
		RecordID: id,
		Slot:     slot.String(),
		Handle:   h.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.registryService.Count(r.Context())
	if err != nil {
		s.writeServiceError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, types.StatsResponse{
		OK:          true,
		RecordCount: n,
		ServerTime:  serverTime(),
	})
}

// writeServiceError maps the error taxonomy onto HTTP statuses with
// stable machine-readable codes.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrBadHandleCount):
		writeError(w, http.StatusBadRequest, "bad_handle_count", err.Error())
	case errors.Is(err, service.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, service.ErrNoPairs):
		writeError(w, http.StatusBadRequest, "no_pairs", err.Error())
	case errors.Is(err, seal.ErrInvalidProof):
		writeError(w, http.StatusBadRequest, "invalid_proof", err.Error())
	case errors.Is(err, seal.ErrEmptyContractList):
		writeError(w, http.StatusBadRequest, "empty_contract_list", err.Error())
	case errors.Is(err, store.ErrAlreadyBound):
		writeError(w, http.StatusConflict, "already_bound", err.Error())
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, store.ErrHandleNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, service.ErrRevocationDisabled):
		writeError(w, http.StatusForbidden, "revocation_disabled", err.Error())
	case errors.Is(err, service.ErrExpiredAuthorization):
		writeError(w, http.StatusForbidden, "expired_authorization", err.Error())
	case errors.Is(err, seal.ErrBadSignature):
		writeError(w, http.StatusForbidden, "bad_signature", err.Error())
	case errors.Is(err, service.ErrUnauthorizedAttribute):
		writeError(w, http.StatusForbidden, "unauthorized_attribute", err.Error())
	default:
		s.logger.Printf("%s error: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_record_id", "record id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

func serverTime() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
