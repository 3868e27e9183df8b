package models

import "time"

// Tipos de barco aceitos pelo programa on-chain.
const (
	BoatTypeSailboat  = "Sailboat"
	BoatTypeMotorboat = "Motorboat"
	BoatTypeYacht     = "Yacht"
	BoatTypeCatamaran = "Catamaran"
	BoatTypeOther     = "Other"
)

// Limites de campo impostos pelo layout da conta on-chain.
const (
	MaxBoatNameLen         = 50
	MaxBoatDescriptionLen  = 200
	MaxRegistrationNumLen  = 30
	MaxManufacturerNameLen = 50
)

// Boat representa um barco registrado para tokenização como NFT.
type Boat struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	BoatType             string    `json:"boat_type" db:"boat_type"`
	Manufacturer         string    `json:"manufacturer" db:"manufacturer"`
	YearBuilt            int       `json:"year_built" db:"year_built"`
	LengthFeet           float64   `json:"length_feet" db:"length_feet"`
	RegistrationNumber   string    `json:"registration_number" db:"registration_number"`
	Description          string    `json:"description" db:"description"`
	WalletAddress        string    `json:"wallet_address" db:"wallet_address"`          // Carteira do dono atual
	MintAddress          string    `json:"mint_address" db:"mint_address"`              // Vazio enquanto não mintado
	TransactionSignature string    `json:"transaction_signature" db:"transaction_signature"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// IsMinted indica se o barco já possui NFT na blockchain.
func (b Boat) IsMinted() bool {
	return b.MintAddress != ""
}
