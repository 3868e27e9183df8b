package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sirupsen/logrus"

	"github.com/ferreirogomes/solimare/models"
)

// CoownershipStore é o recorte do storage usado pela governança.
type CoownershipStore interface {
	CreateVaultWithShares(vault models.Vault, shares []models.Share) error
	GetVault(id string) (models.Vault, bool, error)
	GetActiveVaultByBoatID(boatID string) (models.Vault, bool, error)
	GetShares(vaultID string) ([]models.Share, error)
	GetShare(vaultID, walletAddress string) (models.Share, bool, error)
	SetVaultActive(id string, active bool) error
	InsertProposal(p models.Proposal) error
	GetProposal(id string) (models.Proposal, bool, error)
	GetProposalsByVaultID(vaultID string) ([]models.Proposal, error)
	GetVotes(proposalID string) ([]models.Vote, error)
	CastVote(vote models.Vote, votingThreshold int) (string, int, error)
	MarkProposalExecuted(id string, executedAt time.Time) error
	ExpirePendingProposals(now time.Time) ([]models.Proposal, error)
}

// EventPublisher publica eventos para os clientes realtime conectados.
type EventPublisher interface {
	Publish(topic, eventType string, payload any)
}

// CoownershipService implementa a governança dos vaults: criação com
// shares, propostas, votos ponderados, execução e expiração.
type CoownershipService struct {
	DB     CoownershipStore
	Boats  BoatStore
	Events EventPublisher
}

// NewCoownershipService cria uma nova instância do serviço de copropriedade.
func NewCoownershipService(db CoownershipStore, boats BoatStore, events EventPublisher) *CoownershipService {
	return &CoownershipService{DB: db, Boats: boats, Events: events}
}

// CreateVault cria o vault de copropriedade de um barco junto com todas as
// shares, numa única unidade atômica. Só o dono atual do barco pode criar,
// o barco precisa estar mintado e não pode haver outro vault ativo.
func (s *CoownershipService) CreateVault(boatID, creatorWallet string, votingThreshold int, shares []models.ShareInput) (models.Vault, error) {
	if votingThreshold < 1 || votingThreshold > 100 {
		return models.Vault{}, fmt.Errorf("%w: deve estar em [1,100], obtido %d",
			models.ErrInvalidThreshold, votingThreshold)
	}
	if err := models.ValidateShareDistribution(shares); err != nil {
		return models.Vault{}, err
	}

	boat, found, err := s.Boats.GetBoat(boatID)
	if err != nil {
		return models.Vault{}, err
	}
	if !found {
		return models.Vault{}, models.ErrBoatNotFound
	}
	if !boat.IsMinted() {
		return models.Vault{}, models.ErrBoatNotMinted
	}
	if boat.WalletAddress != creatorWallet {
		return models.Vault{}, fmt.Errorf("apenas o dono atual do barco pode criar o vault; dono é %s", boat.WalletAddress)
	}

	if _, exists, err := s.DB.GetActiveVaultByBoatID(boatID); err != nil {
		return models.Vault{}, err
	} else if exists {
		return models.Vault{}, fmt.Errorf("%w: barco %s", models.ErrAssetAlreadyVaulted, boatID)
	}

	mint, err := solana.PublicKeyFromBase58(boat.MintAddress)
	if err != nil {
		return models.Vault{}, fmt.Errorf("endereço de mint inválido: %w", err)
	}
	vaultPDA, err := DeriveVaultPDA(mint)
	if err != nil {
		return models.Vault{}, fmt.Errorf("falha ao derivar PDA do vault: %w", err)
	}

	now := time.Now().UTC()
	vault := models.Vault{
		ID:              uuid.New().String(),
		BoatID:          boatID,
		MintAddress:     boat.MintAddress,
		VaultPDA:        vaultPDA.String(),
		TotalShares:     models.TotalVaultShares,
		VotingThreshold: votingThreshold,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	shareRecords := make([]models.Share, 0, len(shares))
	for _, in := range shares {
		shareRecords = append(shareRecords, models.Share{
			ID:              uuid.New().String(),
			VaultID:         vault.ID,
			WalletAddress:   in.WalletAddress,
			SharePercentage: in.SharePercentage,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := s.DB.CreateVaultWithShares(vault, shareRecords); err != nil {
		return models.Vault{}, err
	}

	logrus.WithFields(logrus.Fields{
		"vault_id":  vault.ID,
		"boat_id":   boatID,
		"vault_pda": vault.VaultPDA,
		"threshold": votingThreshold,
		"owners":    len(shareRecords),
	}).Info("Vault de copropriedade criado")

	s.Events.Publish("vault:"+vault.ID, "vault_created", vault)
	return vault, nil
}

// CreateProposal registra uma proposta de governança em status pending. O
// proponente precisa ser cotista do vault e o payload precisa bater com o
// tipo.
func (s *CoownershipService) CreateProposal(vaultID, proposerWallet, proposalType string, data types.JSONText, expiresAt *time.Time) (models.Proposal, error) {
	vault, found, err := s.DB.GetVault(vaultID)
	if err != nil {
		return models.Proposal{}, err
	}
	if !found {
		return models.Proposal{}, models.ErrVaultNotFound
	}
	if !vault.IsActive {
		return models.Proposal{}, fmt.Errorf("%w: vault %s", models.ErrVaultInactive, vaultID)
	}

	if err := models.ValidateProposalData(proposalType, json.RawMessage(data)); err != nil {
		return models.Proposal{}, err
	}

	if _, holds, err := s.DB.GetShare(vaultID, proposerWallet); err != nil {
		return models.Proposal{}, err
	} else if !holds {
		return models.Proposal{}, fmt.Errorf("%w: %s", models.ErrNotAShareholder, proposerWallet)
	}

	now := time.Now().UTC()
	if expiresAt != nil && !expiresAt.After(now) {
		return models.Proposal{}, fmt.Errorf("%w: expiração precisa ser futura", models.ErrInvalidProposalData)
	}

	proposal := models.Proposal{
		ID:             uuid.New().String(),
		VaultID:        vaultID,
		ProposalType:   proposalType,
		ProposalData:   data,
		ProposerWallet: proposerWallet,
		Status:         models.ProposalStatusPending,
		CreatedAt:      now,
		ExpiresAt:      expiresAt,
	}

	if err := s.DB.InsertProposal(proposal); err != nil {
		return models.Proposal{}, err
	}

	logrus.WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"vault_id":    vaultID,
		"type":        proposalType,
		"proposer":    proposerWallet,
	}).Info("Proposta criada")

	s.Events.Publish("vault:"+vaultID, "proposal_created", proposal)
	return proposal, nil
}

// VoteResult é o resultado de um voto: o status resultante da proposta e o
// peso acumulado dos votos yes.
type VoteResult struct {
	ProposalID string `json:"proposal_id"`
	Status     string `json:"status"`
	YesWeight  int    `json:"yes_weight"`
	Threshold  int    `json:"threshold"`
}

// CastVote registra o voto ponderado de um cotista. O peso informado
// precisa bater com a cota atual do votante; o insert do voto e a eventual
// transição para approved acontecem na mesma transação, serializada por
// proposta.
func (s *CoownershipService) CastVote(proposalID, voterWallet string, decision bool, sharePercentage int) (VoteResult, error) {
	proposal, found, err := s.DB.GetProposal(proposalID)
	if err != nil {
		return VoteResult{}, err
	}
	if !found {
		return VoteResult{}, models.ErrProposalNotFound
	}

	vault, found, err := s.DB.GetVault(proposal.VaultID)
	if err != nil {
		return VoteResult{}, err
	}
	if !found {
		return VoteResult{}, models.ErrVaultNotFound
	}

	share, holds, err := s.DB.GetShare(vault.ID, voterWallet)
	if err != nil {
		return VoteResult{}, err
	}
	if !holds {
		return VoteResult{}, fmt.Errorf("%w: %s", models.ErrNotAShareholder, voterWallet)
	}
	if share.SharePercentage != sharePercentage {
		return VoteResult{}, fmt.Errorf("%w: peso informado %d difere da cota atual %d de %s",
			models.ErrNotAShareholder, sharePercentage, share.SharePercentage, voterWallet)
	}

	vote := models.Vote{
		ID:              uuid.New().String(),
		ProposalID:      proposalID,
		VoterWallet:     voterWallet,
		Vote:            decision,
		SharePercentage: sharePercentage,
		CreatedAt:       time.Now().UTC(),
	}

	status, yesWeight, err := s.DB.CastVote(vote, vault.VotingThreshold)
	if err != nil {
		return VoteResult{}, err
	}

	result := VoteResult{
		ProposalID: proposalID,
		Status:     status,
		YesWeight:  yesWeight,
		Threshold:  vault.VotingThreshold,
	}

	logrus.WithFields(logrus.Fields{
		"proposal_id": proposalID,
		"voter":       voterWallet,
		"vote":        decision,
		"weight":      sharePercentage,
		"yes_weight":  yesWeight,
		"status":      status,
	}).Info("Voto registrado")

	s.Events.Publish("proposal:"+proposalID, "vote_cast", map[string]any{
		"voter_wallet":     voterWallet,
		"vote":             decision,
		"share_percentage": sharePercentage,
		"yes_weight":       yesWeight,
		"status":           status,
	})
	if status == models.ProposalStatusApproved {
		s.Events.Publish("vault:"+vault.ID, "proposal_approved", result)
	}
	return result, nil
}

// ExecuteProposal transiciona uma proposta aprovada para executed e dispara
// o efeito on-chain do tipo correspondente. A chamada on-chain de
// governança é simulada, como no programa de referência; apenas a
// transição de estado é autoritativa aqui.
func (s *CoownershipService) ExecuteProposal(proposalID, executorWallet string) (models.Proposal, error) {
	proposal, found, err := s.DB.GetProposal(proposalID)
	if err != nil {
		return models.Proposal{}, err
	}
	if !found {
		return models.Proposal{}, models.ErrProposalNotFound
	}

	if _, holds, err := s.DB.GetShare(proposal.VaultID, executorWallet); err != nil {
		return models.Proposal{}, err
	} else if !holds {
		return models.Proposal{}, fmt.Errorf("%w: %s", models.ErrNotAShareholder, executorWallet)
	}

	executedAt := time.Now().UTC()
	if err := s.DB.MarkProposalExecuted(proposalID, executedAt); err != nil {
		return models.Proposal{}, err
	}

	signature := s.executeOnChain(proposal, executedAt)

	proposal.Status = models.ProposalStatusExecuted
	proposal.ExecutedAt = &executedAt

	logrus.WithFields(logrus.Fields{
		"proposal_id": proposalID,
		"type":        proposal.ProposalType,
		"signature":   signature,
	}).Info("Proposta executada")

	s.Events.Publish("proposal:"+proposalID, "proposal_executed", proposal)
	s.Events.Publish("vault:"+proposal.VaultID, "proposal_executed", proposal)
	return proposal, nil
}

// executeOnChain despacha o efeito do tipo da proposta. A instrução Anchor
// de execução ainda não é montada de verdade; devolvemos uma assinatura
// simulada no mesmo formato do cliente de referência.
func (s *CoownershipService) executeOnChain(proposal models.Proposal, executedAt time.Time) string {
	log := logrus.WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"vault_id":    proposal.VaultID,
	})
	switch proposal.ProposalType {
	case models.ProposalTypeSale:
		log.Info("Efeito de venda delegado ao programa on-chain")
	case models.ProposalTypeTransfer:
		log.Info("Efeito de transferência de cotas delegado ao programa on-chain")
	case models.ProposalTypeMaintenance:
		log.Info("Despesa de manutenção aprovada registrada")
	case models.ProposalTypeUpdateMetadata:
		log.Info("Atualização de metadados delegada ao programa on-chain")
	}
	return fmt.Sprintf("PROPOSAL_EXECUTED_%d", executedAt.UnixMilli())
}

// ProposalTally recomputa os pesos yes/no a partir das linhas de voto.
func (s *CoownershipService) ProposalTally(proposalID string) (yesWeight, noWeight int, err error) {
	votes, err := s.DB.GetVotes(proposalID)
	if err != nil {
		return 0, 0, err
	}
	for _, v := range votes {
		if v.Vote {
			yesWeight += v.SharePercentage
		} else {
			noWeight += v.SharePercentage
		}
	}
	return yesWeight, noWeight, nil
}

// ExpireProposals rejeita propostas pendentes vencidas e notifica os
// clientes conectados. Devolve quantas foram rejeitadas.
func (s *CoownershipService) ExpireProposals(now time.Time) (int, error) {
	expired, err := s.DB.ExpirePendingProposals(now)
	if err != nil {
		return 0, err
	}
	for _, p := range expired {
		logrus.WithFields(logrus.Fields{
			"proposal_id": p.ID,
			"vault_id":    p.VaultID,
			"expires_at":  p.ExpiresAt,
		}).Info("Proposta pendente expirada")
		s.Events.Publish("proposal:"+p.ID, "proposal_rejected", p)
		s.Events.Publish("vault:"+p.VaultID, "proposal_rejected", p)
	}
	return len(expired), nil
}
