package models

import (
	"fmt"
	"time"
)

// TotalVaultShares é o total de cotas de todo vault; as shares são
// percentuais inteiros que precisam somar exatamente este valor.
const TotalVaultShares = 100

// Vault amarra um barco tokenizado aos seus coproprietários e à regra de
// votação. Existe no máximo um vault ativo por barco.
type Vault struct {
	ID              string    `json:"id" db:"id"`
	BoatID          string    `json:"boat_id" db:"boat_id"`
	MintAddress     string    `json:"mint_address" db:"mint_address"`
	VaultPDA        string    `json:"vault_pda" db:"vault_pda"` // Endereço derivado do programa on-chain
	TotalShares     int       `json:"total_shares" db:"total_shares"`
	VotingThreshold int       `json:"voting_threshold" db:"voting_threshold"` // Percentual mínimo de yes para aprovar
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Share é a cota de um coproprietário em um vault.
type Share struct {
	ID              string    `json:"id" db:"id"`
	VaultID         string    `json:"vault_id" db:"vault_id"`
	WalletAddress   string    `json:"wallet_address" db:"wallet_address"`
	SharePercentage int       `json:"share_percentage" db:"share_percentage"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ShareInput é uma entrada da distribuição pedida na criação do vault.
type ShareInput struct {
	WalletAddress   string `json:"wallet_address"`
	SharePercentage int    `json:"share_percentage"`
}

// ValidateShareDistribution confere os invariantes da distribuição:
// percentuais inteiros positivos somando exatamente 100, sem carteira
// repetida e sem carteira vazia.
func ValidateShareDistribution(shares []ShareInput) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: nenhuma share informada", ErrInvalidShareDistribution)
	}

	seen := make(map[string]struct{}, len(shares))
	total := 0
	for _, s := range shares {
		if s.WalletAddress == "" {
			return fmt.Errorf("%w: carteira vazia na distribuição", ErrInvalidShareDistribution)
		}
		if s.SharePercentage <= 0 {
			return fmt.Errorf("%w: percentual deve ser positivo, obtido %d para %s",
				ErrInvalidShareDistribution, s.SharePercentage, s.WalletAddress)
		}
		if _, ok := seen[s.WalletAddress]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateShareholder, s.WalletAddress)
		}
		seen[s.WalletAddress] = struct{}{}
		total += s.SharePercentage
	}

	if total != TotalVaultShares {
		return fmt.Errorf("%w: percentuais devem somar %d, obtido %d",
			ErrInvalidShareDistribution, TotalVaultShares, total)
	}
	return nil
}
