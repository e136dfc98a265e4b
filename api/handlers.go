// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/ferry/chains"
	"github.com/blinklabs-io/ferry/database/models"
	"github.com/blinklabs-io/ferry/identity"
	"github.com/blinklabs-io/ferry/ledger"
	"github.com/blinklabs-io/ferry/snapshot"
	"github.com/blinklabs-io/ferry/token"
)

const (
	maxRequestBodySize  = 64 << 10
	maxSnapshotBodySize = 64 << 20
)

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// fail reports err with the status of its kind. Internal errors are logged
// and their detail is withheld from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(
			r.Context(),
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	s.logger.DebugContext(
		r.Context(),
		"request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func pathIdentity(r *http.Request, name string) (identity.Identity, error) {
	ret, err := identity.Parse(r.PathValue(name))
	if err != nil {
		return identity.Zero, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, name, err)
	}
	return ret, nil
}

func (s *Server) amount(units uint64) Amount {
	return Amount{
		Units:   strconv.FormatUint(units, 10),
		Display: token.FormatAmount(units, s.config.Decimals),
	}
}

func (s *Server) migrationResponse(m *models.Migration) MigrationResponse {
	programID := s.backend.ProgramID()
	ret := MigrationResponse{
		CreatedAt:      m.CreatedAt,
		FinalizedAt:    m.FinalizedAt,
		Address:        m.Address.String(),
		Name:           m.Name,
		Admin:          m.Admin.String(),
		Authority:      m.Authority.String(),
		SourceChain:    chains.ChainID(m.SourceChainID).String(),
		SourceAddress:  chains.DisplayAddress(chains.ChainID(m.SourceChainID), m.SourceAddress),
		CommitmentRoot: m.CommitmentRoot.String(),
		TotalSupply:    s.amount(uint64(m.TotalSupply)),
		MigratedAmount: s.amount(uint64(m.MigratedAmount)),
		SourceChainID:  m.SourceChainID,
		AuthorityNonce: m.AuthorityNonce,
		IsActive:       m.IsActive,
	}
	if addr, _, err := ledger.GovernanceAddress(programID, m.Address); err == nil {
		ret.GovernanceAddress = addr.String()
	}
	if addr, _, err := ledger.ReserveVaultAddress(programID, m.Address); err == nil {
		ret.ReserveVault = addr.String()
	}
	return ret
}

func (s *Server) claimResponse(
	migration identity.Identity,
	c *models.Claim,
) ClaimResponse {
	ret := ClaimResponse{
		ClaimedAt:   c.ClaimedAt,
		Migration:   migration.String(),
		Claimant:    c.Claimant.String(),
		Destination: c.Destination.String(),
		TransferID:  c.TransferID,
		Amount:      s.amount(uint64(c.ClaimedAmount)),
		LeafIndex:   c.LeafIndex,
	}
	addr, _, err := ledger.ClaimAddress(s.backend.ProgramID(), migration, c.Claimant)
	if err == nil {
		ret.Address = addr.String()
	}
	return ret
}

func (s *Server) reserveResponse(
	migration identity.Identity,
	r *models.LiquidityReserve,
) ReserveResponse {
	return ReserveResponse{
		Migration:         migration.String(),
		Treasury:          r.Treasury.String(),
		Vault:             r.Vault.String(),
		TotalReserved:     s.amount(uint64(r.TotalReserved)),
		ReservePercentage: r.ReservePercentage,
		PoolInitialized:   r.PoolInitialized,
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListChains handles GET /v1/chains
func (s *Server) handleListChains(
	w http.ResponseWriter,
	_ *http.Request,
) {
	known := chains.Known()
	ret := make([]ChainResponse, 0, len(known))
	for _, c := range known {
		ret = append(ret, ChainResponse{
			Name: c.Name,
			ID:   uint16(c.ID),
			EVM:  c.EVM,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleListMigrations handles GET /v1/migrations
func (s *Server) handleListMigrations(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	migrations, err := s.backend.ListMigrations(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(migrations), params)
	page := Paginate(migrations, params)
	ret := make([]MigrationResponse, 0, len(page))
	for i := range page {
		ret = append(ret, s.migrationResponse(&page[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleCreateMigration handles POST /v1/migrations. The caller becomes the
// migration admin.
func (s *Server) handleCreateMigration(
	w http.ResponseWriter,
	r *http.Request,
) {
	admin, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req CreateMigrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	chainID, err := chains.ParseChainID(req.SourceChain)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	sourceAddress, err := chains.NormalizeAddress(chainID, req.SourceAddress)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.backend.CreateMigration(
		r.Context(),
		admin,
		ledger.CreateMigrationParams{
			Name:           req.Name,
			SourceAddress:  sourceAddress,
			CommitmentRoot: req.CommitmentRoot,
			TotalSupply:    req.TotalSupply,
			SourceChainID:  uint16(chainID),
		},
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.migrationResponse(m))
}

// handleGetMigration handles GET /v1/migrations/{migration}
func (s *Server) handleGetMigration(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.backend.GetMigration(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.migrationResponse(m))
}

// handleFinalizeMigration handles POST /v1/migrations/{migration}/finalize
func (s *Server) handleFinalizeMigration(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.backend.FinalizeMigration(r.Context(), address, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.migrationResponse(m))
}

// handleFundMigration handles POST /v1/migrations/{migration}/fund
func (s *Server) handleFundMigration(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req FundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	balance, err := s.backend.FundMigration(r.Context(), address, caller, req.Amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FundResponse{
		Migration:    address.String(),
		Amount:       s.amount(req.Amount),
		VaultBalance: s.amount(balance),
	})
}

// handleGetBalance handles GET /v1/migrations/{migration}/balances/{owner}
func (s *Server) handleGetBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	owner, err := pathIdentity(r, "owner")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	balance, err := s.backend.GetBalance(r.Context(), address, owner)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Migration: address.String(),
		Owner:     owner.String(),
		Balance:   s.amount(balance),
	})
}

// handleListClaims handles GET /v1/migrations/{migration}/claims
func (s *Server) handleListClaims(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	claims, err := s.backend.ListClaims(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	SetPaginationHeaders(w, len(claims), params)
	page := Paginate(claims, params)
	ret := make([]ClaimResponse, 0, len(page))
	for i := range page {
		ret = append(ret, s.claimResponse(address, &page[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleClaim handles POST /v1/migrations/{migration}/claims. The caller is
// the claimant.
func (s *Server) handleClaim(
	w http.ResponseWriter,
	r *http.Request,
) {
	claimant, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req ClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var destination identity.Identity
	if req.Destination != "" {
		destination, err = identity.Parse(req.Destination)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	claim, err := s.backend.Claim(r.Context(), ledger.ClaimRequest{
		Proof:       req.Proof,
		Amount:      req.Amount,
		Migration:   address,
		Claimant:    claimant,
		Destination: destination,
		LeafIndex:   req.LeafIndex,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.claimResponse(address, claim))
}

// handleGetClaim handles GET /v1/migrations/{migration}/claims/{claimant}
func (s *Server) handleGetClaim(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	claimant, err := pathIdentity(r, "claimant")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	claim, err := s.backend.GetClaim(r.Context(), address, claimant)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.claimResponse(address, claim))
}

// handleGetReserve handles GET /v1/migrations/{migration}/reserve
func (s *Server) handleGetReserve(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reserve, err := s.backend.GetLiquidityReserve(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reserveResponse(address, reserve))
}

// handleInitializeReserve handles POST /v1/migrations/{migration}/reserve.
// The caller must be the migration admin and becomes the treasury.
func (s *Server) handleInitializeReserve(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req InitializeReserveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reserve, err := s.backend.InitializeLiquidityReserve(
		r.Context(),
		address,
		caller,
		req.Percentage,
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.reserveResponse(address, reserve))
}

// handleContribute handles
// POST /v1/migrations/{migration}/reserve/contributions
func (s *Server) handleContribute(
	w http.ResponseWriter,
	r *http.Request,
) {
	contributor, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req ContributeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var reserveVault identity.Identity
	if req.Reserve != "" {
		reserveVault, err = identity.Parse(req.Reserve)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}
	reserve, err := s.backend.ContributeLiquidity(
		r.Context(),
		ledger.ContributeRequest{
			Migration:   address,
			Reserve:     reserveVault,
			Contributor: contributor,
			Amount:      req.Amount,
		},
	)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reserveResponse(address, reserve))
}

// handleGetTally handles GET /v1/migrations/{migration}/governance
func (s *Server) handleGetTally(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tally, err := s.backend.GetTally(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ret := TallyResponse{
		Migration:  address.String(),
		Choices:    make([]ChoiceResponse, 0, len(tally.Choices)),
		TotalVotes: s.amount(tally.TotalVotes),
	}
	if addr, _, err := ledger.GovernanceAddress(s.backend.ProgramID(), address); err == nil {
		ret.Address = addr.String()
	}
	for _, c := range tally.Choices {
		ret.Choices = append(ret.Choices, ChoiceResponse{
			Choice: c.Choice,
			Weight: s.amount(c.Weight),
			Votes:  c.Votes,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleCastVote handles POST /v1/migrations/{migration}/votes
func (s *Server) handleCastVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	voter, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	vote, err := s.backend.CastVote(r.Context(), address, voter, req.Choice)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, VoteResponse{
		CastAt:    vote.CastAt,
		Migration: address.String(),
		Voter:     vote.Voter.String(),
		Choice:    vote.Choice,
		Weight:    s.amount(uint64(vote.Weight)),
	})
}

// handleGetSnapshot handles GET /v1/migrations/{migration}/snapshot and
// returns the bundle in its published form
func (s *Server) handleGetSnapshot(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bundle, err := s.backend.GetSnapshot(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// handleRegisterSnapshot handles PUT /v1/migrations/{migration}/snapshot
func (s *Server) handleRegisterSnapshot(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bundle, err := snapshot.ReadBundle(
		http.MaxBytesReader(w, r.Body, maxSnapshotBodySize),
	)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	if err := s.backend.RegisterSnapshot(r.Context(), address, caller, bundle); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// handlePublishSnapshot handles
// POST /v1/migrations/{migration}/snapshot/publish. Only the migration admin
// may publish.
func (s *Server) handlePublishSnapshot(
	w http.ResponseWriter,
	r *http.Request,
) {
	caller, err := s.caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.config.Publisher == nil {
		s.fail(w, r, ErrPublishDisabled)
		return
	}
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := s.backend.GetMigration(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if caller != m.Admin {
		s.fail(w, r, ledger.ErrUnauthorized)
		return
	}
	bundle, err := s.backend.GetSnapshot(r.Context(), address)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	url, err := s.config.Publisher.Publish(r.Context(), m.Name, address, bundle)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{URL: url})
}

// handleGetProof handles GET /v1/migrations/{migration}/proofs/{claimant}
func (s *Server) handleGetProof(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, err := pathIdentity(r, "migration")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	claimant, err := pathIdentity(r, "claimant")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	proof, err := s.backend.GetProof(r.Context(), address, claimant)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ret := ProofResponse{
		Migration: address.String(),
		Claimant:  claimant.String(),
		Proof:     make([]string, 0, len(proof.Proof)),
		Amount:    s.amount(proof.Amount),
		LeafIndex: proof.Index,
	}
	for _, h := range proof.Proof {
		ret.Proof = append(ret.Proof, h.String())
	}
	writeJSON(w, http.StatusOK, ret)
}
