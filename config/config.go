package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config reúne a configuração do serviço, lida de variáveis de ambiente.
type Config struct {
	HTTPAddr         string
	DatabaseURL      string
	SolanaRPCURL     string
	SolanaWSURL      string
	FeePayerKey      string // Chave privada do fee payer em Base58
	ExpirySweepSpec  string // Agenda cron do sweep de expiração de propostas
	MigrationsDir    string
	ListenerDisabled bool
}

// Load carrega um .env local (se existir) e monta a configuração.
// DATABASE_URL, RPC e a chave do fee payer são obrigatórios.
func Load() (Config, error) {
	// Em desenvolvimento um .env na raiz evita exportar tudo na mão.
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:         getenv("SOLIMARE_HTTP_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("SOLIMARE_DATABASE_URL"),
		SolanaRPCURL:     getenv("SOLIMARE_RPC_URL", "https://api.devnet.solana.com"),
		SolanaWSURL:      getenv("SOLIMARE_WS_URL", "wss://api.devnet.solana.com"),
		FeePayerKey:      os.Getenv("SOLIMARE_FEE_PAYER_KEY"),
		ExpirySweepSpec:  getenv("SOLIMARE_EXPIRY_SWEEP_SPEC", "@every 1m"),
		MigrationsDir:    getenv("SOLIMARE_MIGRATIONS_DIR", "./storage/migrations"),
		ListenerDisabled: os.Getenv("SOLIMARE_LISTENER_DISABLED") == "true",
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("SOLIMARE_DATABASE_URL é obrigatória")
	}
	if cfg.FeePayerKey == "" {
		return Config{}, fmt.Errorf("SOLIMARE_FEE_PAYER_KEY é obrigatória")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
