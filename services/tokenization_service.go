package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ferreirogomes/solimare/models"
)

// BoatStore é o recorte do storage usado pelo serviço de tokenização.
type BoatStore interface {
	SaveBoat(boat models.Boat) error
	GetBoat(id string) (models.Boat, bool, error)
	GetBoatByMintAddress(mintAddress string) (models.Boat, bool, error)
	GetBoatsByWallet(walletAddress string) ([]models.Boat, error)
	UpdateBoatMint(id, mintAddress, txSignature string) error
	UpdateBoatOwner(id, walletAddress, txSignature string) error
}

// SolanaIntegration abstrai o SolanaIntegrationService para testes.
type SolanaIntegration interface {
	CreateBoatMint(ctx context.Context, owner solana.PublicKey) (solana.PublicKey, solana.Signature, error)
	PrepareTransferTransaction(ctx context.Context, mint, fromOwner, toOwner solana.PublicKey) (string, solana.PublicKey, error)
	SendSignedTransaction(ctx context.Context, signedTxBase64 string) (solana.Signature, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// TokenizationService registra barcos e cuida do ciclo mint/transferência
// do NFT correspondente.
type TokenizationService struct {
	DB      BoatStore
	SolanaS SolanaIntegration
}

// NewTokenizationService cria uma nova instância do serviço de tokenização.
func NewTokenizationService(db BoatStore, solanaS SolanaIntegration) *TokenizationService {
	return &TokenizationService{DB: db, SolanaS: solanaS}
}

var validBoatTypes = map[string]bool{
	models.BoatTypeSailboat:  true,
	models.BoatTypeMotorboat: true,
	models.BoatTypeYacht:     true,
	models.BoatTypeCatamaran: true,
	models.BoatTypeOther:     true,
}

// RegisterBoat valida e persiste um barco ainda sem NFT.
func (s *TokenizationService) RegisterBoat(boat models.Boat) (models.Boat, error) {
	if boat.Name == "" || len(boat.Name) > models.MaxBoatNameLen {
		return models.Boat{}, fmt.Errorf("%w: nome deve ter entre 1 e %d caracteres",
			models.ErrInvalidBoat, models.MaxBoatNameLen)
	}
	if len(boat.Description) > models.MaxBoatDescriptionLen {
		return models.Boat{}, fmt.Errorf("%w: descrição deve ter no máximo %d caracteres",
			models.ErrInvalidBoat, models.MaxBoatDescriptionLen)
	}
	if boat.RegistrationNumber == "" || len(boat.RegistrationNumber) > models.MaxRegistrationNumLen {
		return models.Boat{}, fmt.Errorf("%w: número de registro deve ter entre 1 e %d caracteres",
			models.ErrInvalidBoat, models.MaxRegistrationNumLen)
	}
	if boat.Manufacturer == "" || len(boat.Manufacturer) > models.MaxManufacturerNameLen {
		return models.Boat{}, fmt.Errorf("%w: fabricante deve ter entre 1 e %d caracteres",
			models.ErrInvalidBoat, models.MaxManufacturerNameLen)
	}
	if !validBoatTypes[boat.BoatType] {
		return models.Boat{}, fmt.Errorf("%w: tipo de barco desconhecido %q", models.ErrInvalidBoat, boat.BoatType)
	}
	if boat.YearBuilt < 1900 || boat.YearBuilt > time.Now().Year()+1 {
		return models.Boat{}, fmt.Errorf("%w: ano de construção fora do intervalo, obtido %d",
			models.ErrInvalidBoat, boat.YearBuilt)
	}
	if boat.LengthFeet <= 0 {
		return models.Boat{}, fmt.Errorf("%w: comprimento deve ser positivo, obtido %g",
			models.ErrInvalidBoat, boat.LengthFeet)
	}
	if _, err := solana.PublicKeyFromBase58(boat.WalletAddress); err != nil {
		return models.Boat{}, fmt.Errorf("%w: carteira do dono inválida: %v", models.ErrInvalidBoat, err)
	}

	now := time.Now().UTC()
	boat.ID = uuid.New().String()
	boat.MintAddress = ""
	boat.TransactionSignature = ""
	boat.CreatedAt = now
	boat.UpdatedAt = now

	if err := s.DB.SaveBoat(boat); err != nil {
		return models.Boat{}, err
	}
	return boat, nil
}

// MintBoatNFT cunha o NFT do barco para a carteira do dono registrado.
func (s *TokenizationService) MintBoatNFT(ctx context.Context, boatID string) (models.Boat, error) {
	boat, found, err := s.DB.GetBoat(boatID)
	if err != nil {
		return models.Boat{}, err
	}
	if !found {
		return models.Boat{}, models.ErrBoatNotFound
	}
	if boat.IsMinted() {
		return models.Boat{}, fmt.Errorf("%w: mint %s", models.ErrBoatAlreadyMinted, boat.MintAddress)
	}

	owner, err := solana.PublicKeyFromBase58(boat.WalletAddress)
	if err != nil {
		return models.Boat{}, fmt.Errorf("%w: carteira do dono inválida: %v", models.ErrInvalidBoat, err)
	}

	mint, sig, err := s.SolanaS.CreateBoatMint(ctx, owner)
	if err != nil {
		return models.Boat{}, fmt.Errorf("falha ao cunhar NFT do barco: %w", err)
	}

	if err := s.DB.UpdateBoatMint(boat.ID, mint.String(), sig.String()); err != nil {
		// A transação já está na blockchain; o listener reconcilia depois.
		logrus.WithFields(logrus.Fields{
			"boat_id":   boat.ID,
			"mint":      mint.String(),
			"signature": sig.String(),
		}).WithError(err).Error("Mint enviado, mas falha ao registrar no banco")
		return models.Boat{}, fmt.Errorf("mint enviado, mas falha ao registrar internamente: %w", err)
	}

	boat.MintAddress = mint.String()
	boat.TransactionSignature = sig.String()
	return boat, nil
}

// PrepareTransferBoatNFT monta a transferência do NFT para assinatura do
// dono atual. Devolve a transação serializada em Base64 e a ATA de destino.
func (s *TokenizationService) PrepareTransferBoatNFT(ctx context.Context, boatID, toWallet string) (string, string, error) {
	boat, found, err := s.DB.GetBoat(boatID)
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", models.ErrBoatNotFound
	}
	if !boat.IsMinted() {
		return "", "", models.ErrBoatNotMinted
	}

	mint, err := solana.PublicKeyFromBase58(boat.MintAddress)
	if err != nil {
		return "", "", fmt.Errorf("endereço de mint inválido: %w", err)
	}
	fromOwner, err := solana.PublicKeyFromBase58(boat.WalletAddress)
	if err != nil {
		return "", "", fmt.Errorf("carteira do dono inválida: %w", err)
	}
	toOwner, err := solana.PublicKeyFromBase58(toWallet)
	if err != nil {
		return "", "", fmt.Errorf("%w: carteira de destino inválida: %v", models.ErrInvalidBoat, err)
	}

	serializedTx, destATA, err := s.SolanaS.PrepareTransferTransaction(ctx, mint, fromOwner, toOwner)
	if err != nil {
		return "", "", fmt.Errorf("falha ao preparar transferência: %w", err)
	}
	return serializedTx, destATA.String(), nil
}

// CompleteTransferBoatNFT envia a transação assinada e atualiza o dono do
// barco no registro interno.
func (s *TokenizationService) CompleteTransferBoatNFT(ctx context.Context, boatID, toWallet, signedTxBase64 string) (models.Boat, error) {
	boat, found, err := s.DB.GetBoat(boatID)
	if err != nil {
		return models.Boat{}, err
	}
	if !found {
		return models.Boat{}, models.ErrBoatNotFound
	}
	if !boat.IsMinted() {
		return models.Boat{}, models.ErrBoatNotMinted
	}
	if _, err := solana.PublicKeyFromBase58(toWallet); err != nil {
		return models.Boat{}, fmt.Errorf("%w: carteira de destino inválida: %v", models.ErrInvalidBoat, err)
	}

	sig, err := s.SolanaS.SendSignedTransaction(ctx, signedTxBase64)
	if err != nil {
		return models.Boat{}, fmt.Errorf("falha ao enviar transação assinada: %w", err)
	}

	if err := s.DB.UpdateBoatOwner(boat.ID, toWallet, sig.String()); err != nil {
		// Mesma situação do mint: a blockchain é a fonte de verdade e o
		// listener corrige o registro interno na reconciliação.
		logrus.WithFields(logrus.Fields{
			"boat_id":   boat.ID,
			"to":        toWallet,
			"signature": sig.String(),
		}).WithError(err).Error("Transferência enviada, mas falha ao registrar no banco")
		return models.Boat{}, fmt.Errorf("transferência enviada, mas falha ao registrar internamente: %w", err)
	}

	boat.WalletAddress = toWallet
	boat.TransactionSignature = sig.String()
	return boat, nil
}
