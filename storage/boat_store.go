package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ferreirogomes/solimare/models"
)

// SaveBoat insere um barco; em conflito de ID, atualiza os campos mutáveis.
func (d *DB) SaveBoat(boat models.Boat) error {
	query := `
		INSERT INTO boats (id, name, boat_type, manufacturer, year_built, length_feet,
			registration_number, description, wallet_address, mint_address,
			transaction_signature, created_at, updated_at)
		VALUES (:id, :name, :boat_type, :manufacturer, :year_built, :length_feet,
			:registration_number, :description, :wallet_address, :mint_address,
			:transaction_signature, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			mint_address = EXCLUDED.mint_address,
			transaction_signature = EXCLUDED.transaction_signature,
			updated_at = EXCLUDED.updated_at`
	if _, err := d.NamedExec(query, boat); err != nil {
		return fmt.Errorf("%w: falha ao salvar barco: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// GetBoat busca um barco pelo ID.
func (d *DB) GetBoat(id string) (models.Boat, bool, error) {
	var boat models.Boat
	err := d.Get(&boat, `SELECT * FROM boats WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Boat{}, false, nil
	}
	if err != nil {
		return models.Boat{}, false, fmt.Errorf("%w: falha ao buscar barco: %v", models.ErrStoreUnavailable, err)
	}
	return boat, true, nil
}

// GetBoatByMintAddress busca um barco pelo endereço do mint do NFT.
func (d *DB) GetBoatByMintAddress(mintAddress string) (models.Boat, bool, error) {
	var boat models.Boat
	err := d.Get(&boat, `SELECT * FROM boats WHERE mint_address = $1`, mintAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Boat{}, false, nil
	}
	if err != nil {
		return models.Boat{}, false, fmt.Errorf("%w: falha ao buscar barco por mint: %v", models.ErrStoreUnavailable, err)
	}
	return boat, true, nil
}

// GetBoatsByWallet lista os barcos registrados por uma carteira.
func (d *DB) GetBoatsByWallet(walletAddress string) ([]models.Boat, error) {
	boats := []models.Boat{}
	err := d.Select(&boats, `SELECT * FROM boats WHERE wallet_address = $1 ORDER BY created_at DESC`, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: falha ao listar barcos: %v", models.ErrStoreUnavailable, err)
	}
	return boats, nil
}

// UpdateBoatMint registra o resultado do mint (ou de uma transferência
// reconciliada pelo listener) no barco.
func (d *DB) UpdateBoatMint(id, mintAddress, txSignature string) error {
	res, err := d.Exec(`
		UPDATE boats SET mint_address = $1, transaction_signature = $2, updated_at = now()
		WHERE id = $3`, mintAddress, txSignature, id)
	if err != nil {
		return fmt.Errorf("%w: falha ao atualizar mint do barco: %v", models.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBoatNotFound
	}
	return nil
}

// UpdateBoatOwner troca a carteira dona do barco (transferência do NFT).
func (d *DB) UpdateBoatOwner(id, walletAddress, txSignature string) error {
	res, err := d.Exec(`
		UPDATE boats SET wallet_address = $1, transaction_signature = $2, updated_at = now()
		WHERE id = $3`, walletAddress, txSignature, id)
	if err != nil {
		return fmt.Errorf("%w: falha ao atualizar dono do barco: %v", models.ErrStoreUnavailable, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrBoatNotFound
	}
	return nil
}
