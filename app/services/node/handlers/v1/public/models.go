package public

import (
	"github.com/shopspring/decimal"

	"github.com/siertrichain/blockchain/business/sys/validate"
	"github.com/siertrichain/blockchain/foundation/blockchain/consensus"
)

// Tx is a transaction submitted by a client.
type Tx struct {
	Payload string `json:"payload" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (tx Tx) Validate() error {
	return validate.Check(tx)
}

// Claim asks for the triangle at the address.
type Claim struct {
	Address string          `json:"address" validate:"required"`
	Owner   string          `json:"owner" validate:"required"`
	Stake   decimal.Decimal `json:"stake" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (c Claim) Validate() error {
	return validate.Check(c)
}

// Defense adds stake to a territory.
type Defense struct {
	Stake decimal.Decimal `json:"stake" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (d Defense) Validate() error {
	return validate.Check(d)
}

// Challenge bids for a territory held by another owner.
type Challenge struct {
	Challenger string          `json:"challenger" validate:"required"`
	Stake      decimal.Decimal `json:"stake" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (c Challenge) Validate() error {
	return validate.Check(c)
}

type score struct {
	Height uint64               `json:"height"`
	Score  float64              `json:"score"`
	Stats  consensus.ChainStats `json:"stats"`
}

type validity struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type depth struct {
	Height uint64 `json:"height"`
	Depth  int    `json:"depth"`
}

type status struct {
	Status string `json:"status"`
}
