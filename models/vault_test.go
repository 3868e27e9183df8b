package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ferreirogomes/solimare/models"
)

func TestValidateShareDistribution_OK(t *testing.T) {
	err := models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: 60},
		{WalletAddress: "W2", SharePercentage: 40},
	})
	assert.NoError(t, err)

	err = models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: 100},
	})
	assert.NoError(t, err)
}

func TestValidateShareDistribution_SomaErrada(t *testing.T) {
	err := models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: 50},
		{WalletAddress: "W2", SharePercentage: 40},
	})
	assert.ErrorIs(t, err, models.ErrInvalidShareDistribution)
	assert.Contains(t, err.Error(), "90")
}

func TestValidateShareDistribution_CarteiraRepetida(t *testing.T) {
	err := models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: 50},
		{WalletAddress: "W1", SharePercentage: 50},
	})
	assert.ErrorIs(t, err, models.ErrDuplicateShareholder)
	assert.Contains(t, err.Error(), "W1")
}

func TestValidateShareDistribution_PercentualNaoPositivo(t *testing.T) {
	err := models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: 0},
		{WalletAddress: "W2", SharePercentage: 100},
	})
	assert.ErrorIs(t, err, models.ErrInvalidShareDistribution)

	err = models.ValidateShareDistribution([]models.ShareInput{
		{WalletAddress: "W1", SharePercentage: -10},
		{WalletAddress: "W2", SharePercentage: 110},
	})
	assert.ErrorIs(t, err, models.ErrInvalidShareDistribution)
}

func TestValidateShareDistribution_Vazia(t *testing.T) {
	assert.ErrorIs(t, models.ValidateShareDistribution(nil), models.ErrInvalidShareDistribution)
}
