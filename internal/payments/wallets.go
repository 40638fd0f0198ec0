package payments

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/betbot/internal/ledger"
)

// SetWalletAddress define o endereço de recebimento de um ativo (um por ativo)
func (w *Workflow) SetWalletAddress(ctx context.Context, adminID int64, asset, address string) (*ledger.WalletAddress, error) {
	if !w.admins.IsAdmin(adminID) {
		return nil, ledger.ErrUnauthorized
	}
	code, err := w.asset(asset)
	if err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address required", ledger.ErrInvalidSelection)
	}

	wa := &ledger.WalletAddress{Asset: code, Address: address, UpdatedBy: adminID}
	err = w.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if err := tx.UpsertWalletAddress(ctx, wa); err != nil {
			return err
		}
		return tx.InsertAudit(ctx, &ledger.AuditEntry{
			AdminID: adminID,
			Action:  "set_wallet",
			Details: fmt.Sprintf("asset=%s address=%s", code, address),
		})
	})
	if err != nil {
		w.fail("set_wallet")
		return nil, fmt.Errorf("set wallet %s: %w", code, err)
	}

	w.log.Info("wallet address updated", zap.String("asset", code), zap.Int64("admin_id", adminID))
	return wa, nil
}

// WalletAddress devolve ErrNotFound se o admin ainda não configurou o ativo
func (w *Workflow) WalletAddress(ctx context.Context, asset string) (*ledger.WalletAddress, error) {
	code, err := w.asset(asset)
	if err != nil {
		return nil, err
	}
	return w.store.WalletAddress(ctx, code)
}

func (w *Workflow) WalletAddresses(ctx context.Context) ([]ledger.WalletAddress, error) {
	return w.store.WalletAddresses(ctx)
}
