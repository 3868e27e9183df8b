package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ferreirogomes/solimare/blockchain_listener"
	"github.com/ferreirogomes/solimare/config"
	"github.com/ferreirogomes/solimare/handlers"
	"github.com/ferreirogomes/solimare/jobs"
	"github.com/ferreirogomes/solimare/realtime"
	"github.com/ferreirogomes/solimare/services"
	"github.com/ferreirogomes/solimare/storage"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Configuração inválida: %v", err)
	}

	db, err := storage.NewDB(cfg.DatabaseURL, cfg.MigrationsDir)
	if err != nil {
		logrus.Fatalf("Falha fatal ao conectar ao banco de dados e aplicar migrações: %v", err)
	}
	defer db.Close()

	solanaIntegrationService, err := services.NewSolanaIntegrationService(cfg.SolanaRPCURL, cfg.FeePayerKey)
	if err != nil {
		logrus.Fatalf("Falha ao inicializar serviço Solana: %v", err)
	}

	hub := realtime.NewHub()
	tokenizationService := services.NewTokenizationService(db, solanaIntegrationService)
	coownershipService := services.NewCoownershipService(db, db, hub)

	boatHandler := handlers.NewBoatHandler(tokenizationService)
	coownershipHandler := handlers.NewCoownershipHandler(coownershipService)

	// Sweep que rejeita propostas pendentes expiradas.
	expiryJob, err := jobs.NewExpiryJob(coownershipService, cfg.ExpirySweepSpec)
	if err != nil {
		logrus.Fatalf("Falha ao agendar sweep de expiração: %v", err)
	}
	expiryJob.Start()
	defer expiryJob.Stop()

	// Listener que reconcilia o registro interno com a blockchain.
	if !cfg.ListenerDisabled {
		listener, err := blockchain_listener.NewBlockchainListener(
			cfg.SolanaRPCURL, cfg.SolanaWSURL, db, cfg.FeePayerKey)
		if err != nil {
			logrus.Fatalf("Falha ao inicializar listener da blockchain: %v", err)
		}
		listenerCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go listener.StartListening(listenerCtx)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Route("/boats", func(r chi.Router) {
		r.Post("/", boatHandler.CreateBoat)
		r.Get("/{id}", boatHandler.GetBoatByID)
		r.Get("/by-wallet/{wallet}", boatHandler.GetBoatsByWallet)
		r.Post("/{id}/mint", boatHandler.MintBoat)
		r.Post("/{id}/transfer/prepare", boatHandler.PrepareTransfer)
		r.Post("/{id}/transfer/complete", boatHandler.CompleteTransfer)
	})

	r.Route("/vaults", func(r chi.Router) {
		r.Post("/", coownershipHandler.CreateVault)
		r.Get("/{id}", coownershipHandler.GetVaultByID)
		r.Get("/by-boat/{boatID}", coownershipHandler.GetVaultByBoatID)
		r.Get("/{id}/shares", coownershipHandler.GetVaultShares)
		r.Get("/{id}/proposals", coownershipHandler.GetVaultProposals)
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Post("/", coownershipHandler.CreateProposal)
		r.Get("/{id}", coownershipHandler.GetProposalByID)
		r.Post("/{id}/votes", coownershipHandler.CastVote)
		r.Post("/{id}/execute", coownershipHandler.ExecuteProposal)
	})

	r.Get("/ws", hub.ServeHTTP)

	logrus.Infof("Servidor backend rodando em %s...", cfg.HTTPAddr)
	logrus.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
