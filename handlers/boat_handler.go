package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ferreirogomes/solimare/models"
	"github.com/ferreirogomes/solimare/services"
)

// BoatHandler lida com requisições HTTP relacionadas a barcos e seus NFTs.
type BoatHandler struct {
	Service *services.TokenizationService
}

// NewBoatHandler cria uma nova instância do handler de barcos.
func NewBoatHandler(s *services.TokenizationService) *BoatHandler {
	return &BoatHandler{Service: s}
}

// CreateBoat registra um novo barco, ainda sem NFT.
// POST /boats
func (h *BoatHandler) CreateBoat(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Name               string  `json:"name"`
		BoatType           string  `json:"boat_type"`
		Manufacturer       string  `json:"manufacturer"`
		YearBuilt          int     `json:"year_built"`
		LengthFeet         float64 `json:"length_feet"`
		RegistrationNumber string  `json:"registration_number"`
		Description        string  `json:"description"`
		WalletAddress      string  `json:"wallet_address"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	boat, err := h.Service.RegisterBoat(models.Boat{
		Name:               requestBody.Name,
		BoatType:           requestBody.BoatType,
		Manufacturer:       requestBody.Manufacturer,
		YearBuilt:          requestBody.YearBuilt,
		LengthFeet:         requestBody.LengthFeet,
		RegistrationNumber: requestBody.RegistrationNumber,
		Description:        requestBody.Description,
		WalletAddress:      requestBody.WalletAddress,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, boat)
}

// GetBoatByID obtém um barco pelo ID.
// GET /boats/{id}
func (h *BoatHandler) GetBoatByID(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "id")
	if boatID == "" {
		http.Error(w, "ID do barco é obrigatório", http.StatusBadRequest)
		return
	}

	boat, found, err := h.Service.DB.GetBoat(boatID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "Barco não encontrado", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, boat)
}

// GetBoatsByWallet lista os barcos de uma carteira.
// GET /boats/by-wallet/{wallet}
func (h *BoatHandler) GetBoatsByWallet(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "wallet")
	if wallet == "" {
		http.Error(w, "Carteira é obrigatória", http.StatusBadRequest)
		return
	}

	boats, err := h.Service.DB.GetBoatsByWallet(wallet)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boats)
}

// MintBoat cunha o NFT do barco para a carteira do dono registrado.
// POST /boats/{id}/mint
func (h *BoatHandler) MintBoat(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "id")
	if boatID == "" {
		http.Error(w, "ID do barco é obrigatório", http.StatusBadRequest)
		return
	}

	boat, err := h.Service.MintBoatNFT(r.Context(), boatID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boat)
}

// PrepareTransferResponse devolve a transação para assinatura do dono.
type PrepareTransferResponse struct {
	SerializedTransaction string `json:"serialized_transaction"` // Transação em Base64 para assinatura
	DestinationATA        string `json:"destination_ata"`
}

// PrepareTransfer prepara a transferência do NFT para assinatura do dono atual.
// POST /boats/{id}/transfer/prepare
func (h *BoatHandler) PrepareTransfer(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "id")

	var req struct {
		ToWallet string `json:"to_wallet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	serializedTx, destATA, err := h.Service.PrepareTransferBoatNFT(r.Context(), boatID, req.ToWallet)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PrepareTransferResponse{
		SerializedTransaction: serializedTx,
		DestinationATA:        destATA,
	})
}

// CompleteTransfer envia a transação de transferência assinada para a Solana.
// POST /boats/{id}/transfer/complete
func (h *BoatHandler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	boatID := chi.URLParam(r, "id")

	var req struct {
		ToWallet          string `json:"to_wallet"`
		SignedTransaction string `json:"signed_transaction"` // Transação assinada pelo dono (Base64)
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	boat, err := h.Service.CompleteTransferBoatNFT(r.Context(), boatID, req.ToWallet, req.SignedTransaction)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, boat)
}
