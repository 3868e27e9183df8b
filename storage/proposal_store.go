package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/solimare/models"
)

// InsertProposal persiste uma nova proposta em status pending.
func (d *DB) InsertProposal(p models.Proposal) error {
	_, err := d.NamedExec(`
		INSERT INTO coownership_proposals (id, vault_id, proposal_type, proposal_data,
			proposer_wallet, status, created_at, expires_at, executed_at)
		VALUES (:id, :vault_id, :proposal_type, :proposal_data,
			:proposer_wallet, :status, :created_at, :expires_at, :executed_at)`, p)
	if err != nil {
		return fmt.Errorf("%w: falha ao inserir proposta: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// GetProposal busca uma proposta pelo ID.
func (d *DB) GetProposal(id string) (models.Proposal, bool, error) {
	var p models.Proposal
	err := d.Get(&p, `SELECT * FROM coownership_proposals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Proposal{}, false, nil
	}
	if err != nil {
		return models.Proposal{}, false, fmt.Errorf("%w: falha ao buscar proposta: %v", models.ErrStoreUnavailable, err)
	}
	return p, true, nil
}

// GetProposalsByVaultID lista as propostas de um vault, mais recentes primeiro.
func (d *DB) GetProposalsByVaultID(vaultID string) ([]models.Proposal, error) {
	proposals := []models.Proposal{}
	err := d.Select(&proposals, `
		SELECT * FROM coownership_proposals
		WHERE vault_id = $1 ORDER BY created_at DESC`, vaultID)
	if err != nil {
		return nil, fmt.Errorf("%w: falha ao listar propostas: %v", models.ErrStoreUnavailable, err)
	}
	return proposals, nil
}

// GetVotes lista os votos de uma proposta.
func (d *DB) GetVotes(proposalID string) ([]models.Vote, error) {
	votes := []models.Vote{}
	err := d.Select(&votes, `
		SELECT * FROM coownership_votes
		WHERE proposal_id = $1 ORDER BY created_at`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("%w: falha ao listar votos: %v", models.ErrStoreUnavailable, err)
	}
	return votes, nil
}

// CastVote insere o voto e recalcula o tally na mesma transação. O SELECT
// FOR UPDATE na linha da proposta serializa votos concorrentes: o segundo
// votante só prossegue depois que o primeiro confirmou, e portanto enxerga
// o tally já atualizado. Devolve o status resultante da proposta e o peso
// acumulado de votos yes.
func (d *DB) CastVote(vote models.Vote, votingThreshold int) (string, int, error) {
	tx, err := d.Beginx()
	if err != nil {
		return "", 0, fmt.Errorf("%w: falha ao abrir transação: %v", models.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var status string
	err = tx.Get(&status, `
		SELECT status FROM coownership_proposals WHERE id = $1 FOR UPDATE`, vote.ProposalID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, models.ErrProposalNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("%w: falha ao travar proposta: %v", models.ErrStoreUnavailable, err)
	}
	if status != models.ProposalStatusPending {
		return "", 0, fmt.Errorf("%w: status atual é %q", models.ErrProposalNotPending, status)
	}

	_, err = tx.NamedExec(`
		INSERT INTO coownership_votes (id, proposal_id, voter_wallet, vote,
			share_percentage, created_at)
		VALUES (:id, :proposal_id, :voter_wallet, :vote,
			:share_percentage, :created_at)`, vote)
	if err != nil {
		if isUniqueViolation(err, "uq_votes_proposal_wallet") {
			return "", 0, fmt.Errorf("%w: %s", models.ErrDuplicateVote, vote.VoterWallet)
		}
		return "", 0, fmt.Errorf("%w: falha ao inserir voto: %v", models.ErrStoreUnavailable, err)
	}

	// Tally recomputado das linhas de voto, nunca de um contador à parte.
	var yesWeight int
	err = tx.Get(&yesWeight, `
		SELECT COALESCE(SUM(share_percentage), 0) FROM coownership_votes
		WHERE proposal_id = $1 AND vote`, vote.ProposalID)
	if err != nil {
		return "", 0, fmt.Errorf("%w: falha ao recomputar tally: %v", models.ErrStoreUnavailable, err)
	}

	newStatus := models.ProposalStatusPending
	if yesWeight >= votingThreshold {
		newStatus = models.ProposalStatusApproved
		_, err = tx.Exec(`
			UPDATE coownership_proposals SET status = $1 WHERE id = $2`,
			newStatus, vote.ProposalID)
		if err != nil {
			return "", 0, fmt.Errorf("%w: falha ao aprovar proposta: %v", models.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("%w: falha ao confirmar voto: %v", models.ErrStoreUnavailable, err)
	}
	return newStatus, yesWeight, nil
}

// MarkProposalExecuted transiciona approved -> executed e carimba o horário
// de execução. Chamar de novo sobre uma proposta já executada falha com
// ErrProposalNotApproved (execução não é reexecutável).
func (d *DB) MarkProposalExecuted(id string, executedAt time.Time) error {
	tx, err := d.Beginx()
	if err != nil {
		return fmt.Errorf("%w: falha ao abrir transação: %v", models.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var status string
	err = tx.Get(&status, `
		SELECT status FROM coownership_proposals WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrProposalNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: falha ao travar proposta: %v", models.ErrStoreUnavailable, err)
	}
	if status != models.ProposalStatusApproved {
		return fmt.Errorf("%w: status atual é %q", models.ErrProposalNotApproved, status)
	}

	_, err = tx.Exec(`
		UPDATE coownership_proposals SET status = $1, executed_at = $2 WHERE id = $3`,
		models.ProposalStatusExecuted, executedAt, id)
	if err != nil {
		return fmt.Errorf("%w: falha ao marcar execução: %v", models.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: falha ao confirmar execução: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

// ExpirePendingProposals rejeita toda proposta pendente cujo expires_at já
// venceu e devolve as propostas afetadas. Propostas sem expires_at nunca
// expiram por aqui.
func (d *DB) ExpirePendingProposals(now time.Time) ([]models.Proposal, error) {
	expired := []models.Proposal{}
	err := d.Select(&expired, `
		UPDATE coownership_proposals SET status = $1
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3
		RETURNING *`,
		models.ProposalStatusRejected, models.ProposalStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("%w: falha ao expirar propostas: %v", models.ErrStoreUnavailable, err)
	}
	return expired, nil
}
