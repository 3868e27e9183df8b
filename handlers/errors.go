package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ferreirogomes/solimare/models"
)

// writeError traduz a taxonomia de erros do domínio para códigos HTTP. A
// mensagem do erro carrega o invariante violado e os valores observados,
// então ela vai direto para o corpo da resposta.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrBoatNotFound),
		errors.Is(err, models.ErrVaultNotFound),
		errors.Is(err, models.ErrProposalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidShareDistribution),
		errors.Is(err, models.ErrInvalidThreshold),
		errors.Is(err, models.ErrUnknownProposalType),
		errors.Is(err, models.ErrInvalidProposalData),
		errors.Is(err, models.ErrInvalidBoat):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrDuplicateShareholder),
		errors.Is(err, models.ErrAssetAlreadyVaulted),
		errors.Is(err, models.ErrVaultInactive),
		errors.Is(err, models.ErrProposalNotPending),
		errors.Is(err, models.ErrDuplicateVote),
		errors.Is(err, models.ErrNotAShareholder),
		errors.Is(err, models.ErrProposalNotApproved),
		errors.Is(err, models.ErrBoatAlreadyMinted),
		errors.Is(err, models.ErrBoatNotMinted):
		status = http.StatusConflict
	case errors.Is(err, models.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

// writeJSON serializa a resposta com o status informado.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
