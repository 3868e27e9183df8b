package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ferreirogomes/solimare/models"
	"github.com/ferreirogomes/solimare/services"
)

type MockSolanaIntegration struct {
	mock.Mock
}

func (m *MockSolanaIntegration) CreateBoatMint(ctx context.Context, owner solana.PublicKey) (solana.PublicKey, solana.Signature, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(solana.PublicKey), args.Get(1).(solana.Signature), args.Error(2)
}

func (m *MockSolanaIntegration) PrepareTransferTransaction(ctx context.Context, mint, fromOwner, toOwner solana.PublicKey) (string, solana.PublicKey, error) {
	args := m.Called(ctx, mint, fromOwner, toOwner)
	return args.String(0), args.Get(1).(solana.PublicKey), args.Error(2)
}

func (m *MockSolanaIntegration) SendSignedTransaction(ctx context.Context, signedTxBase64 string) (solana.Signature, error) {
	args := m.Called(ctx, signedTxBase64)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockSolanaIntegration) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func newTokenizationService() (*services.TokenizationService, *MockBoatStore, *MockSolanaIntegration) {
	boats := new(MockBoatStore)
	solanaS := new(MockSolanaIntegration)
	return services.NewTokenizationService(boats, solanaS), boats, solanaS
}

func validBoat() models.Boat {
	return models.Boat{
		Name:               "Mar Aberto",
		Description:        "Veleiro de cruzeiro em bom estado",
		RegistrationNumber: "BR-2024-0042",
		Manufacturer:       "Beneteau",
		BoatType:           models.BoatTypeSailboat,
		YearBuilt:          2019,
		LengthFeet:         38.5,
		WalletAddress:      solana.NewWallet().PublicKey().String(),
	}
}

func TestRegisterBoat_OK(t *testing.T) {
	svc, boats, _ := newTokenizationService()
	boats.On("SaveBoat", mock.Anything).Return(nil)

	saved, err := svc.RegisterBoat(validBoat())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Empty(t, saved.MintAddress)
	assert.Empty(t, saved.TransactionSignature)
	boats.AssertExpectations(t)
}

func TestRegisterBoat_CamposInvalidos(t *testing.T) {
	svc, _, _ := newTokenizationService()

	cases := map[string]func(*models.Boat){
		"nome vazio":           func(b *models.Boat) { b.Name = "" },
		"registro vazio":       func(b *models.Boat) { b.RegistrationNumber = "" },
		"fabricante vazio":     func(b *models.Boat) { b.Manufacturer = "" },
		"tipo desconhecido":    func(b *models.Boat) { b.BoatType = "submarino" },
		"ano fora de alcance":  func(b *models.Boat) { b.YearBuilt = 1800 },
		"comprimento negativo": func(b *models.Boat) { b.LengthFeet = -1 },
		"carteira inválida":    func(b *models.Boat) { b.WalletAddress = "nao-e-base58" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			boat := validBoat()
			mutate(&boat)
			_, err := svc.RegisterBoat(boat)
			assert.ErrorIs(t, err, models.ErrInvalidBoat)
		})
	}
}

func TestMintBoatNFT_OK(t *testing.T) {
	svc, boats, solanaS := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	mint := solana.NewWallet().PublicKey()
	var sig solana.Signature

	boats.On("GetBoat", "boat-1").Return(boat, true, nil)
	solanaS.On("CreateBoatMint", mock.Anything, mock.Anything).Return(mint, sig, nil)
	boats.On("UpdateBoatMint", "boat-1", mint.String(), sig.String()).Return(nil)

	minted, err := svc.MintBoatNFT(context.Background(), "boat-1")
	require.NoError(t, err)
	assert.Equal(t, mint.String(), minted.MintAddress)
	assert.Equal(t, sig.String(), minted.TransactionSignature)
	boats.AssertExpectations(t)
	solanaS.AssertExpectations(t)
}

func TestMintBoatNFT_JaMintado(t *testing.T) {
	svc, boats, _ := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	boat.MintAddress = solana.NewWallet().PublicKey().String()
	boats.On("GetBoat", "boat-1").Return(boat, true, nil)

	_, err := svc.MintBoatNFT(context.Background(), "boat-1")
	assert.ErrorIs(t, err, models.ErrBoatAlreadyMinted)
}

func TestMintBoatNFT_NaoEncontrado(t *testing.T) {
	svc, boats, _ := newTokenizationService()
	boats.On("GetBoat", "boat-x").Return(models.Boat{}, false, nil)

	_, err := svc.MintBoatNFT(context.Background(), "boat-x")
	assert.ErrorIs(t, err, models.ErrBoatNotFound)
}

func TestMintBoatNFT_FalhaAoRegistrarNoBanco(t *testing.T) {
	// O mint já foi enviado; o erro precisa dizer isso para o chamador saber
	// que a reconciliação do listener vai corrigir o registro.
	svc, boats, solanaS := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	mint := solana.NewWallet().PublicKey()
	var sig solana.Signature

	boats.On("GetBoat", "boat-1").Return(boat, true, nil)
	solanaS.On("CreateBoatMint", mock.Anything, mock.Anything).Return(mint, sig, nil)
	boats.On("UpdateBoatMint", "boat-1", mint.String(), sig.String()).Return(errors.New("conexão perdida"))

	_, err := svc.MintBoatNFT(context.Background(), "boat-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mint enviado")
}

func TestPrepareTransferBoatNFT_OK(t *testing.T) {
	svc, boats, solanaS := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	boat.MintAddress = solana.NewWallet().PublicKey().String()
	toWallet := solana.NewWallet().PublicKey()
	destATA := solana.NewWallet().PublicKey()

	boats.On("GetBoat", "boat-1").Return(boat, true, nil)
	solanaS.On("PrepareTransferTransaction", mock.Anything, mock.Anything, mock.Anything, toWallet).
		Return("dHJhbnNhY2Fv", destATA, nil)

	serialized, ata, err := svc.PrepareTransferBoatNFT(context.Background(), "boat-1", toWallet.String())
	require.NoError(t, err)
	assert.Equal(t, "dHJhbnNhY2Fv", serialized)
	assert.Equal(t, destATA.String(), ata)
}

func TestPrepareTransferBoatNFT_SemNFT(t *testing.T) {
	svc, boats, _ := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	boats.On("GetBoat", "boat-1").Return(boat, true, nil)

	_, _, err := svc.PrepareTransferBoatNFT(context.Background(), "boat-1", solana.NewWallet().PublicKey().String())
	assert.ErrorIs(t, err, models.ErrBoatNotMinted)
}

func TestCompleteTransferBoatNFT_OK(t *testing.T) {
	svc, boats, solanaS := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	boat.MintAddress = solana.NewWallet().PublicKey().String()
	toWallet := solana.NewWallet().PublicKey().String()
	var sig solana.Signature

	boats.On("GetBoat", "boat-1").Return(boat, true, nil)
	solanaS.On("SendSignedTransaction", mock.Anything, "dHJhbnNhY2FvQXNzaW5hZGE=").Return(sig, nil)
	boats.On("UpdateBoatOwner", "boat-1", toWallet, sig.String()).Return(nil)

	updated, err := svc.CompleteTransferBoatNFT(context.Background(), "boat-1", toWallet, "dHJhbnNhY2FvQXNzaW5hZGE=")
	require.NoError(t, err)
	assert.Equal(t, toWallet, updated.WalletAddress)
	boats.AssertExpectations(t)
}

func TestCompleteTransferBoatNFT_DestinoInvalido(t *testing.T) {
	svc, boats, _ := newTokenizationService()

	boat := validBoat()
	boat.ID = "boat-1"
	boat.MintAddress = solana.NewWallet().PublicKey().String()
	boats.On("GetBoat", "boat-1").Return(boat, true, nil)

	_, err := svc.CompleteTransferBoatNFT(context.Background(), "boat-1", "nao-e-base58", "dHJhbnNhY2Fv")
	assert.ErrorIs(t, err, models.ErrInvalidBoat)
}
