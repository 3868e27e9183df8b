package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ferreirogomes/solimare/models"
)

// CreateVaultWithShares persiste o vault e todas as shares numa única
// transação: ou tudo entra, ou nada entra. O índice parcial
// uq_vaults_active_boat garante no banco o invariante de um vault ativo
// por barco mesmo sob criações concorrentes.
func (d *DB) CreateVaultWithShares(vault models.Vault, shares []models.Share) error {
	tx, err := d.Beginx()
	if err != nil {
		return fmt.Errorf("%w: falha ao abrir transação: %v", models.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		INSERT INTO coownership_vaults (id, boat_id, mint_address, vault_pda,
			total_shares, voting_threshold, is_active, created_at, updated_at)
		VALUES (:id, :boat_id, :mint_address, :vault_pda,
			:total_shares, :voting_threshold, :is_active, :created_at, :updated_at)`, vault)
	if err != nil {
		if isUniqueViolation(err, "uq_vaults_active_boat") {
			return fmt.Errorf("%w: barco %s", models.ErrAssetAlreadyVaulted, vault.BoatID)
		}
		return fmt.Errorf("%w: falha ao inserir vault: %v", models.ErrStoreUnavailable, err)
	}

	for _, share := range shares {
		_, err = tx.NamedExec(`
			INSERT INTO coownership_shares (id, vault_id, wallet_address,
				share_percentage, created_at, updated_at)
			VALUES (:id, :vault_id, :wallet_address,
				:share_percentage, :created_at, :updated_at)`, share)
		if err != nil {
			if isUniqueViolation(err, "uq_shares_vault_wallet") {
				return fmt.Errorf("%w: %s", models.ErrDuplicateShareholder, share.WalletAddress)
			}
			return fmt.Errorf("%w: falha ao inserir share: %v", models.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: falha ao confirmar criação do vault: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// GetVault busca um vault pelo ID.
func (d *DB) GetVault(id string) (models.Vault, bool, error) {
	var vault models.Vault
	err := d.Get(&vault, `SELECT * FROM coownership_vaults WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vault{}, false, nil
	}
	if err != nil {
		return models.Vault{}, false, fmt.Errorf("%w: falha ao buscar vault: %v", models.ErrStoreUnavailable, err)
	}
	return vault, true, nil
}

// GetActiveVaultByBoatID busca o vault ativo de um barco, se existir.
func (d *DB) GetActiveVaultByBoatID(boatID string) (models.Vault, bool, error) {
	var vault models.Vault
	err := d.Get(&vault, `SELECT * FROM coownership_vaults WHERE boat_id = $1 AND is_active`, boatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vault{}, false, nil
	}
	if err != nil {
		return models.Vault{}, false, fmt.Errorf("%w: falha ao buscar vault do barco: %v", models.ErrStoreUnavailable, err)
	}
	return vault, true, nil
}

// GetShares lista as shares de um vault.
func (d *DB) GetShares(vaultID string) ([]models.Share, error) {
	shares := []models.Share{}
	err := d.Select(&shares, `
		SELECT * FROM coownership_shares
		WHERE vault_id = $1 ORDER BY share_percentage DESC, wallet_address`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("%w: falha ao listar shares: %v", models.ErrStoreUnavailable, err)
	}
	return shares, nil
}

// GetShare busca a share de uma carteira em um vault.
func (d *DB) GetShare(vaultID, walletAddress string) (models.Share, bool, error) {
	var share models.Share
	err := d.Get(&share, `
		SELECT * FROM coownership_shares
		WHERE vault_id = $1 AND wallet_address = $2`, vaultID, walletAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Share{}, false, nil
	}
	if err != nil {
		return models.Share{}, false, fmt.Errorf("%w: falha ao buscar share: %v", models.ErrStoreUnavailable, err)
	}
	return share, true, nil
}

// SetVaultActive liga/desliga o vault. Desativar não apaga histórico.
func (d *DB) SetVaultActive(id string, active bool) error {
	res, err := d.Exec(`
		UPDATE coownership_vaults SET is_active = $1, updated_at = now()
		WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("%w: falha ao atualizar vault: %v", models.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrVaultNotFound
	}
	return nil
}
