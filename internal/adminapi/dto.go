package adminapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/betbot/internal/ledger"
)

var validate = validator.New()

// valores monetários chegam como string para não perder precisão
type SettleBetRequest struct {
	Result    string `json:"result" validate:"required,oneof=won lost"`
	WinAmount string `json:"win_amount" validate:"omitempty,numeric"`
}

func (s *SettleBetRequest) Validate() error {
	return validate.Struct(s)
}

func (s *SettleBetRequest) amount() (decimal.Decimal, error) {
	if s.WinAmount == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s.WinAmount)
	if err != nil {
		return decimal.Zero, ledger.ErrInvalidAmount
	}
	return d, nil
}

type SettleMatchRequest struct {
	Winner string `json:"winner" validate:"required,max=128"`
}

func (s *SettleMatchRequest) Validate() error {
	return validate.Struct(s)
}

type WalletRequest struct {
	Address string `json:"address" validate:"required,min=10,max=128,printascii"`
}

func (w *WalletRequest) Validate() error {
	return validate.Struct(w)
}

type errorResponse struct {
	Error string `json:"error"`
}
