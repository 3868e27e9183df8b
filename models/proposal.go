package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Tipos de proposta aceitos pela governança do vault.
const (
	ProposalTypeSale           = "sale"
	ProposalTypeTransfer       = "transfer"
	ProposalTypeMaintenance    = "maintenance"
	ProposalTypeUpdateMetadata = "update_metadata"
)

// Status de proposta. As transições são monotônicas:
// pending -> approved -> executed, ou pending -> rejected.
const (
	ProposalStatusPending  = "pending"
	ProposalStatusApproved = "approved"
	ProposalStatusExecuted = "executed"
	ProposalStatusRejected = "rejected"
)

// Proposal é uma ação de governança pendente de votação ponderada.
type Proposal struct {
	ID             string          `json:"id" db:"id"`
	VaultID        string          `json:"vault_id" db:"vault_id"`
	ProposalType   string          `json:"proposal_type" db:"proposal_type"`
	ProposalData   types.JSONText  `json:"proposal_data" db:"proposal_data"`
	ProposerWallet string          `json:"proposer_wallet" db:"proposer_wallet"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty" db:"expires_at"`
	ExecutedAt     *time.Time      `json:"executed_at,omitempty" db:"executed_at"`
}

// Vote é a decisão ponderada de um cotista sobre uma proposta. O
// share_percentage é capturado no momento do voto; transferências de cota
// posteriores não alteram tallies históricos.
type Vote struct {
	ID              string    `json:"id" db:"id"`
	ProposalID      string    `json:"proposal_id" db:"proposal_id"`
	VoterWallet     string    `json:"voter_wallet" db:"voter_wallet"`
	Vote            bool      `json:"vote" db:"vote"`
	SharePercentage int       `json:"share_percentage" db:"share_percentage"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// SaleProposalData é o payload de uma proposta de venda do barco.
type SaleProposalData struct {
	Buyer string  `json:"buyer"`
	Price float64 `json:"price"` // Em SOL
}

// TransferProposalData é o payload de transferência de cotas entre carteiras.
type TransferProposalData struct {
	NewOwner    string `json:"new_owner"`
	ShareAmount int    `json:"share_amount"`
}

// MaintenanceProposalData é o payload de uma despesa de manutenção.
type MaintenanceProposalData struct {
	Description string  `json:"description"`
	Cost        float64 `json:"cost"` // Em SOL
}

// UpdateMetadataProposalData é o payload de atualização dos metadados do NFT.
type UpdateMetadataProposalData struct {
	Fields string `json:"fields"` // Ex: "name, description"
}

// ValidateProposalData decodifica e valida o payload conforme o tipo.
// Devolve ErrUnknownProposalType para tipos fora do conjunto suportado e
// ErrInvalidProposalData quando o payload não bate com o formato do tipo.
func ValidateProposalData(proposalType string, data json.RawMessage) error {
	switch proposalType {
	case ProposalTypeSale:
		var d SaleProposalData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProposalData, err)
		}
		if d.Buyer == "" {
			return fmt.Errorf("%w: venda exige a carteira do comprador", ErrInvalidProposalData)
		}
		if d.Price <= 0 {
			return fmt.Errorf("%w: preço de venda deve ser positivo, obtido %g", ErrInvalidProposalData, d.Price)
		}
	case ProposalTypeTransfer:
		var d TransferProposalData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProposalData, err)
		}
		if d.NewOwner == "" {
			return fmt.Errorf("%w: transferência exige a carteira de destino", ErrInvalidProposalData)
		}
		if d.ShareAmount < 1 || d.ShareAmount > TotalVaultShares {
			return fmt.Errorf("%w: quantidade de cotas deve estar em [1,%d], obtido %d",
				ErrInvalidProposalData, TotalVaultShares, d.ShareAmount)
		}
	case ProposalTypeMaintenance:
		var d MaintenanceProposalData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProposalData, err)
		}
		if d.Description == "" {
			return fmt.Errorf("%w: manutenção exige descrição", ErrInvalidProposalData)
		}
		if d.Cost <= 0 {
			return fmt.Errorf("%w: custo de manutenção deve ser positivo, obtido %g", ErrInvalidProposalData, d.Cost)
		}
	case ProposalTypeUpdateMetadata:
		var d UpdateMetadataProposalData
		if err := json.Unmarshal(data, &d); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProposalData, err)
		}
		if d.Fields == "" {
			return fmt.Errorf("%w: atualização de metadados exige os campos alvo", ErrInvalidProposalData)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProposalType, proposalType)
	}
	return nil
}

// IsTerminal indica se o status não admite mais transições.
func IsTerminalProposalStatus(status string) bool {
	return status == ProposalStatusExecuted || status == ProposalStatusRejected
}
