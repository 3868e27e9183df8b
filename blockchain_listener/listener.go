// Package blockchain_listener acompanha as confirmações na Solana para
// manter o registro interno de barcos sincronizado com a blockchain, que é
// a fonte de verdade de posse dos NFTs.
package blockchain_listener

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/sirupsen/logrus"

	"github.com/ferreirogomes/solimare/storage"
)

const reconnectDelay = 5 * time.Second

// BlockchainListener escuta transações finalizadas que mencionam o fee
// payer e reconcilia mints e transferências de NFTs de barco no banco.
type BlockchainListener struct {
	RPCClient *rpc.Client
	WSURL     string
	DB        *storage.DB
	FeePayer  solana.PrivateKey
}

// NewBlockchainListener cria uma nova instância do listener.
func NewBlockchainListener(rpcEndpoint, wsEndpoint string, db *storage.DB, feePayerKeyBase58 string) (*BlockchainListener, error) {
	feePayer, err := solana.PrivateKeyFromBase58(feePayerKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar chave privada do fee payer para o listener: %w", err)
	}
	return &BlockchainListener{
		RPCClient: rpc.New(rpcEndpoint),
		WSURL:     wsEndpoint,
		DB:        db,
		FeePayer:  feePayer,
	}, nil
}

// StartListening mantém a assinatura websocket viva até o contexto ser
// cancelado, reconectando após falhas.
func (l *BlockchainListener) StartListening(ctx context.Context) {
	logrus.Info("Iniciando listener da blockchain")
	for {
		if err := l.listenOnce(ctx); err != nil {
			logrus.WithError(err).Warn("Assinatura da blockchain interrompida")
		}
		select {
		case <-ctx.Done():
			logrus.Info("Listener da blockchain encerrado")
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *BlockchainListener) listenOnce(ctx context.Context) error {
	wsClient, err := ws.Connect(ctx, l.WSURL)
	if err != nil {
		return fmt.Errorf("falha ao conectar ao websocket Solana: %w", err)
	}
	defer wsClient.Close()

	// Toda transação que montamos é paga pelo fee payer, então assinar os
	// logs que o mencionam cobre mints e transferências preparadas aqui.
	sub, err := wsClient.LogsSubscribeMentions(l.FeePayer.PublicKey(), rpc.CommitmentFinalized)
	if err != nil {
		return fmt.Errorf("falha ao assinar logs: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			return fmt.Errorf("falha ao receber log: %w", err)
		}
		if got.Value.Err != nil {
			logrus.WithField("signature", got.Value.Signature.String()).
				Warnf("Transação falhou na rede: %v", got.Value.Err)
			continue
		}
		l.ProcessTransaction(ctx, got.Value.Signature)
	}
}

// ProcessTransaction busca os detalhes de uma transação finalizada e
// aplica as instruções SPL Token relevantes ao registro interno.
func (l *BlockchainListener) ProcessTransaction(ctx context.Context, signature solana.Signature) {
	txResp, err := l.RPCClient.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentFinalized,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		logrus.WithError(err).WithField("signature", signature.String()).
			Warn("Falha ao obter detalhes da transação")
		return
	}
	if txResp == nil || txResp.Transaction == nil {
		return
	}

	tx, err := txResp.Transaction.GetTransaction()
	if err != nil {
		logrus.WithError(err).WithField("signature", signature.String()).
			Warn("Falha ao decodificar transação")
		return
	}

	for _, ix := range tx.Message.Instructions {
		progKey, err := tx.Message.ResolveProgramIDIndex(ix.ProgramIDIndex)
		if err != nil || !progKey.Equals(token.ProgramID) {
			continue
		}
		accounts, err := ix.ResolveInstructionAccounts(&tx.Message)
		if err != nil {
			continue
		}
		decoded, err := token.DecodeInstruction(accounts, ix.Data)
		if err != nil {
			continue
		}

		switch inst := decoded.Impl.(type) {
		case *token.MintTo:
			l.handleMintTo(signature, inst)
		case *token.Transfer:
			l.handleTransfer(ctx, signature, inst)
		}
	}
}

// handleMintTo confirma no registro interno o mint de um NFT de barco.
func (l *BlockchainListener) handleMintTo(signature solana.Signature, inst *token.MintTo) {
	mint := inst.GetMintAccount().PublicKey

	boat, found, err := l.DB.GetBoatByMintAddress(mint.String())
	if err != nil {
		logrus.WithError(err).Warn("Falha ao buscar barco por mint na reconciliação")
		return
	}
	if !found {
		// Mint de fora do nosso registro; ignorar.
		return
	}

	if boat.TransactionSignature == signature.String() {
		return
	}
	if err := l.DB.UpdateBoatMint(boat.ID, mint.String(), signature.String()); err != nil {
		logrus.WithError(err).WithField("boat_id", boat.ID).
			Warn("Falha ao reconciliar mint do barco")
		return
	}
	logrus.WithFields(logrus.Fields{
		"boat_id":   boat.ID,
		"mint":      mint.String(),
		"signature": signature.String(),
	}).Info("Mint de NFT reconciliado")
}

// handleTransfer reconcilia a troca de dono de um NFT de barco. O mint e o
// novo dono vêm das contas de token de origem e destino.
func (l *BlockchainListener) handleTransfer(ctx context.Context, signature solana.Signature, inst *token.Transfer) {
	source := inst.GetSourceAccount().PublicKey
	destination := inst.GetDestinationAccount().PublicKey

	sourceAccount, err := l.fetchTokenAccount(ctx, source)
	if err != nil {
		logrus.WithError(err).Warn("Falha ao decodificar conta de origem na reconciliação")
		return
	}

	boat, found, err := l.DB.GetBoatByMintAddress(sourceAccount.Mint.String())
	if err != nil {
		logrus.WithError(err).Warn("Falha ao buscar barco por mint na reconciliação")
		return
	}
	if !found {
		return
	}

	destAccount, err := l.fetchTokenAccount(ctx, destination)
	if err != nil {
		logrus.WithError(err).Warn("Falha ao decodificar conta de destino na reconciliação")
		return
	}

	newOwner := destAccount.Owner.String()
	if boat.WalletAddress == newOwner && boat.TransactionSignature == signature.String() {
		return
	}
	if err := l.DB.UpdateBoatOwner(boat.ID, newOwner, signature.String()); err != nil {
		logrus.WithError(err).WithField("boat_id", boat.ID).
			Warn("Falha ao reconciliar transferência do barco")
		return
	}
	logrus.WithFields(logrus.Fields{
		"boat_id":   boat.ID,
		"new_owner": newOwner,
		"signature": signature.String(),
	}).Info("Transferência de NFT reconciliada")
}

func (l *BlockchainListener) fetchTokenAccount(ctx context.Context, address solana.PublicKey) (token.Account, error) {
	info, err := l.RPCClient.GetAccountInfo(ctx, address)
	if err != nil {
		return token.Account{}, fmt.Errorf("falha ao obter conta %s: %w", address, err)
	}
	var account token.Account
	if err := bin.NewBinDecoder(info.Value.Data.GetBinary()).Decode(&account); err != nil {
		return token.Account{}, fmt.Errorf("falha ao decodificar conta de token %s: %w", address, err)
	}
	return account, nil
}
