package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// ProgramID é o programa rwa_boat_nft implantado na devnet.
var ProgramID = solana.MustPublicKeyFromBase58("2vCpCyyJaFqJ3PhztQka92fnCpf3z8uzU9ee5NQxuVZY")

// Tamanho da conta de mint SPL.
const mintAccountSize = 82

// DeriveConfigPDA deriva o PDA de configuração. Seeds: ["config", authority].
func DeriveConfigPDA(authority solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("config"), authority.Bytes()}, ProgramID)
	return pda, err
}

// DeriveMintPDA deriva o PDA do mint de um barco.
// Seeds: ["mint", owner, registration_number].
func DeriveMintPDA(owner solana.PublicKey, registrationNumber string) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("mint"), owner.Bytes(), []byte(registrationNumber)}, ProgramID)
	return pda, err
}

// DeriveBoatNFTPDA deriva o PDA da conta do barco. Seeds: ["boat", mint].
func DeriveBoatNFTPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("boat"), mint.Bytes()}, ProgramID)
	return pda, err
}

// DeriveVaultPDA deriva o endereço determinístico do vault de copropriedade.
// Seeds: ["vault", mint].
func DeriveVaultPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("vault"), mint.Bytes()}, ProgramID)
	return pda, err
}

// DeriveProposalPDA deriva o PDA de uma proposta.
// Seeds: ["proposal", vault, proposal_id].
func DeriveProposalPDA(vault solana.PublicKey, proposalID string) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("proposal"), vault.Bytes(), []byte(proposalID)}, ProgramID)
	return pda, err
}

// SolanaIntegrationService concentra toda a comunicação com a rede Solana.
// O FeePayer paga as taxas de rede e assume a autoridade de mint dos NFTs.
type SolanaIntegrationService struct {
	RPCClient *rpc.Client
	FeePayer  solana.PrivateKey
}

// NewSolanaIntegrationService cria o serviço a partir do endpoint RPC e da
// chave privada do fee payer em Base58.
func NewSolanaIntegrationService(rpcEndpoint, feePayerKeyBase58 string) (*SolanaIntegrationService, error) {
	feePayer, err := solana.PrivateKeyFromBase58(feePayerKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar chave privada do fee payer: %w", err)
	}
	return &SolanaIntegrationService{
		RPCClient: rpc.New(rpcEndpoint),
		FeePayer:  feePayer,
	}, nil
}

// CreateBoatMint cria o mint do NFT (0 decimais), a ATA do dono e cunha a
// unidade única para a carteira do dono. Tudo assinado pelo fee payer.
func (s *SolanaIntegrationService) CreateBoatMint(ctx context.Context, owner solana.PublicKey) (solana.PublicKey, solana.Signature, error) {
	mintWallet := solana.NewWallet()
	mint := mintWallet.PublicKey()

	rent, err := s.RPCClient.GetMinimumBalanceForRentExemption(ctx, mintAccountSize, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao obter rent mínimo: %w", err)
	}

	ownerATA, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao derivar ATA do dono: %w", err)
	}

	blockhash, err := s.RPCClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao obter blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewCreateAccountInstruction(
				rent,
				mintAccountSize,
				token.ProgramID,
				s.FeePayer.PublicKey(),
				mint,
			).Build(),
			token.NewInitializeMintInstruction(
				0, // NFT: zero decimais
				s.FeePayer.PublicKey(),
				s.FeePayer.PublicKey(),
				mint,
				solana.SysVarRentPubkey,
			).Build(),
			ata.NewCreateInstruction(
				s.FeePayer.PublicKey(),
				owner,
				mint,
			).Build(),
			token.NewMintToInstruction(
				1, // Unidade única
				mint,
				ownerATA,
				s.FeePayer.PublicKey(),
				nil,
			).Build(),
		},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(s.FeePayer.PublicKey()),
	)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao montar transação de mint: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.FeePayer.PublicKey()) {
			return &s.FeePayer
		}
		if key.Equals(mint) {
			return &mintWallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao assinar transação de mint: %w", err)
	}

	sig, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("falha ao enviar transação de mint: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"mint":      mint.String(),
		"owner":     owner.String(),
		"signature": sig.String(),
	}).Info("NFT de barco cunhado")
	return mint, sig, nil
}

// PrepareTransferTransaction monta a transferência do NFT para assinatura
// do dono atual. O fee payer já assina como pagador; a assinatura do dono é
// colhida no cliente e a transação volta em CompleteTransfer. Devolve a
// transação em Base64 e a ATA de destino.
func (s *SolanaIntegrationService) PrepareTransferTransaction(ctx context.Context, mint, fromOwner, toOwner solana.PublicKey) (string, solana.PublicKey, error) {
	fromATA, _, err := solana.FindAssociatedTokenAddress(fromOwner, mint)
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao derivar ATA do remetente: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(toOwner, mint)
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao derivar ATA do destinatário: %w", err)
	}

	balance, err := s.GetTokenAccountBalance(ctx, fromATA)
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao verificar saldo do remetente: %w", err)
	}
	if balance < 1 {
		return "", solana.PublicKey{}, fmt.Errorf("remetente não possui o NFT do barco")
	}

	instructions := []solana.Instruction{}

	// Se a ATA de destino ainda não existe, incluímos a criação na mesma
	// transação, paga pelo fee payer.
	if _, err := s.RPCClient.GetAccountInfo(ctx, toATA); err != nil {
		instructions = append(instructions, ata.NewCreateInstruction(
			s.FeePayer.PublicKey(),
			toOwner,
			mint,
		).Build())
	}

	instructions = append(instructions, token.NewTransferInstruction(
		1,
		fromATA,
		toATA,
		fromOwner,
		nil,
	).Build())

	blockhash, err := s.RPCClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao obter blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(s.FeePayer.PublicKey()),
	)
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao criar transação de transferência: %w", err)
	}

	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.FeePayer.PublicKey()) {
			return &s.FeePayer
		}
		return nil
	})
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao assinar transação pelo fee payer: %w", err)
	}

	serializedTx, err := tx.MarshalBinary()
	if err != nil {
		return "", solana.PublicKey{}, fmt.Errorf("falha ao serializar transação: %w", err)
	}

	return base64.StdEncoding.EncodeToString(serializedTx), toATA, nil
}

// SendSignedTransaction recebe uma transação já assinada e a envia para a rede.
func (s *SolanaIntegrationService) SendSignedTransaction(ctx context.Context, signedTxBase64 string) (solana.Signature, error) {
	signedTxBytes, err := base64.StdEncoding.DecodeString(signedTxBase64)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao decodificar transação assinada: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(signedTxBytes))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao deserializar transação: %w", err)
	}

	sig, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao enviar transação assinada: %w", err)
	}
	logrus.WithField("signature", sig.String()).Info("Transação assinada enviada")
	return sig, nil
}

// GetTokenAccountBalance devolve o saldo em unidades atômicas de uma ATA.
func (s *SolanaIntegrationService) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	resp, err := s.RPCClient.GetTokenAccountBalance(ctx, account, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("falha ao obter saldo da conta de token: %w", err)
	}
	amount, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("saldo inválido devolvido pelo RPC: %w", err)
	}
	return amount, nil
}
