package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx/types"

	"github.com/ferreirogomes/solimare/models"
	"github.com/ferreirogomes/solimare/services"
)

// CoownershipHandler lida com requisições HTTP da governança de vaults.
type CoownershipHandler struct {
	Service *services.CoownershipService
}

// NewCoownershipHandler cria uma nova instância do handler de copropriedade.
func NewCoownershipHandler(s *services.CoownershipService) *CoownershipHandler {
	return &CoownershipHandler{Service: s}
}

// CreateVaultRequest é o corpo da criação de vault.
type CreateVaultRequest struct {
	BoatID          string              `json:"boat_id"`
	CreatorWallet   string              `json:"creator_wallet"`
	VotingThreshold int                 `json:"voting_threshold"`
	Shares          []models.ShareInput `json:"shares"`
}

// CreateVault cria o vault de copropriedade com as shares.
// POST /vaults
func (h *CoownershipHandler) CreateVault(w http.ResponseWriter, r *http.Request) {
	var req CreateVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	vault, err := h.Service.CreateVault(req.BoatID, req.CreatorWallet, req.VotingThreshold, req.Shares)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, vault)
}

// GetVaultByID obtém um vault pelo ID, com suas shares.
// GET /vaults/{id}
func (h *CoownershipHandler) GetVaultByID(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")

	vault, found, err := h.Service.DB.GetVault(vaultID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "Vault não encontrado", http.StatusNotFound)
		return
	}

	shares, err := h.Service.DB.GetShares(vaultID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vault":  vault,
		"shares": shares,
	})
}

// GetVaultByBoatID obtém o vault ativo de um barco.
// GET /vaults/by-boat/{boatID}
func (h *CoownershipHandler) GetVaultByBoatID(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "boatID")

	vault, found, err := h.Service.DB.GetActiveVaultByBoatID(boatID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "Barco não possui vault ativo", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, vault)
}

// GetVaultShares lista as shares de um vault.
// GET /vaults/{id}/shares
func (h *CoownershipHandler) GetVaultShares(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")

	shares, err := h.Service.DB.GetShares(vaultID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, shares)
}

// GetVaultProposals lista as propostas de um vault.
// GET /vaults/{id}/proposals
func (h *CoownershipHandler) GetVaultProposals(w http.ResponseWriter, r *http.Request) {
	vaultID := chi.URLParam(r, "id")

	proposals, err := h.Service.DB.GetProposalsByVaultID(vaultID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proposals)
}

// CreateProposalRequest é o corpo da criação de proposta.
type CreateProposalRequest struct {
	VaultID        string          `json:"vault_id"`
	ProposerWallet string          `json:"proposer_wallet"`
	ProposalType   string          `json:"proposal_type"`
	ProposalData   json.RawMessage `json:"proposal_data"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// CreateProposal registra uma proposta de governança.
// POST /proposals
func (h *CoownershipHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	proposal, err := h.Service.CreateProposal(
		req.VaultID, req.ProposerWallet, req.ProposalType,
		types.JSONText(req.ProposalData), req.ExpiresAt,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, proposal)
}

// GetProposalByID obtém uma proposta com o tally corrente.
// GET /proposals/{id}
func (h *CoownershipHandler) GetProposalByID(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "id")

	proposal, found, err := h.Service.DB.GetProposal(proposalID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "Proposta não encontrada", http.StatusNotFound)
		return
	}

	yesWeight, noWeight, err := h.Service.ProposalTally(proposalID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proposal":   proposal,
		"yes_weight": yesWeight,
		"no_weight":  noWeight,
	})
}

// CastVoteRequest é o corpo do voto.
type CastVoteRequest struct {
	VoterWallet     string `json:"voter_wallet"`
	Vote            bool   `json:"vote"`
	SharePercentage int    `json:"share_percentage"`
}

// CastVote registra o voto ponderado de um cotista e devolve o status
// resultante da proposta.
// POST /proposals/{id}/votes
func (h *CoownershipHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "id")

	var req CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Service.CastVote(proposalID, req.VoterWallet, req.Vote, req.SharePercentage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ExecuteProposal executa uma proposta aprovada.
// POST /proposals/{id}/execute
func (h *CoownershipHandler) ExecuteProposal(w http.ResponseWriter, r *http.Request) {
	proposalID := chi.URLParam(r, "id")

	var req struct {
		ExecutorWallet string `json:"executor_wallet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	proposal, err := h.Service.ExecuteProposal(proposalID, req.ExecutorWallet)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}
