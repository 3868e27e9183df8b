package models

import "errors"

// Erros de invariante do domínio de copropriedade. Cada operação devolve o
// sentinela embrulhado com o detalhe do valor observado, para que a camada
// HTTP consiga dizer ao usuário qual regra foi violada.
var (
	ErrInvalidShareDistribution = errors.New("distribuição de shares inválida")
	ErrDuplicateShareholder     = errors.New("carteira repetida na distribuição de shares")
	ErrAssetAlreadyVaulted      = errors.New("barco já possui um vault ativo")
	ErrInvalidThreshold         = errors.New("threshold de votação inválido")
	ErrVaultInactive            = errors.New("vault não está ativo")
	ErrUnknownProposalType      = errors.New("tipo de proposta desconhecido")
	ErrInvalidProposalData      = errors.New("payload da proposta inválido")
	ErrProposalNotPending       = errors.New("proposta não está pendente")
	ErrDuplicateVote            = errors.New("carteira já votou nesta proposta")
	ErrNotAShareholder          = errors.New("carteira não é cotista do vault")
	ErrProposalNotApproved      = errors.New("proposta não está aprovada")

	ErrInvalidBoat       = errors.New("dados do barco inválidos")
	ErrBoatAlreadyMinted = errors.New("barco já possui NFT cunhado")
	ErrBoatNotMinted     = errors.New("barco ainda não possui NFT cunhado")

	ErrBoatNotFound     = errors.New("barco não encontrado")
	ErrVaultNotFound    = errors.New("vault não encontrado")
	ErrProposalNotFound = errors.New("proposta não encontrada")

	// ErrStoreUnavailable embrulha qualquer falha do banco de dados
	// (rede, timeout, permissão) que não seja violação de invariante.
	ErrStoreUnavailable = errors.New("armazenamento indisponível")
)
