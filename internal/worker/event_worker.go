// Package worker reacts to transaction events published by the API server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/adiawaskar/smart-upi-poc/internal/amqp"
	"github.com/adiawaskar/smart-upi-poc/internal/core"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/sheets"
	"github.com/adiawaskar/smart-upi-poc/internal/store"
)

// Repository is what the worker reads and writes in the record store.
type Repository interface {
	store.UserFinder
	store.TransactionLister
	store.TransactionImporter
}

// EventWorker credits registered counterparties and exports statement rows.
type EventWorker struct {
	repo      Repository
	statement sheets.StatementWriter // optional
}

func NewEventWorker(repo Repository, statement sheets.StatementWriter) *EventWorker {
	return &EventWorker{repo: repo, statement: statement}
}

// HandleTransactionCreated processes one event. It is safe to call again for
// a redelivered event: the counterparty credit is written at most once.
func (w *EventWorker) HandleTransactionCreated(ctx context.Context, ev *amqp.TransactionEvent) error {
	t := ev.Transaction
	slog.InfoContext(ctx, "Processing transaction event", applog.NewFields().
		WithOperation(applog.OpConsume).
		WithEventID(ev.EventID).
		WithTransactionID(t.ID).
		WithUserID(t.UserID).
		ToSlice()...)

	if err := w.creditCounterparty(ctx, t); err != nil {
		return fmt.Errorf("credit counterparty: %w", err)
	}

	if w.statement != nil {
		ref, err := w.statement.AppendStatement(ctx, t)
		if err != nil {
			return fmt.Errorf("export statement: %w", err)
		}
		slog.InfoContext(ctx, "Exported statement row", applog.NewFields().
			WithOperation(applog.OpExport).
			WithTransactionID(t.ID).
			ToSlice()...)
		slog.DebugContext(ctx, "Statement range updated", "ref", ref)
	}
	return nil
}

// CreditID is the id of the received record mirroring sent transaction id.
func CreditID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("credit:"+id)).String()
}

func (w *EventWorker) creditCounterparty(ctx context.Context, t core.Transaction) error {
	if t.Type != core.TypeSent || t.Status != core.StatusSuccess {
		return nil
	}

	payee, err := w.repo.FindUserByPaymentAddress(ctx, t.RecipientAccountID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find payee: %w", err)
	}
	if payee.ID == t.UserID {
		return nil
	}

	payer, err := w.repo.FindUserByID(ctx, t.UserID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Sender of transfer is not registered, skipping credit", applog.NewFields().
			WithOperation(applog.OpCredit).
			WithTransactionID(t.ID).
			WithUserID(t.UserID).
			ToSlice()...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find payer: %w", err)
	}

	creditID := CreditID(t.ID)
	existing, err := w.repo.ListTransactions(ctx, payee.ID)
	if err != nil {
		return fmt.Errorf("list payee transactions: %w", err)
	}
	for _, e := range existing {
		if e.ID == creditID {
			slog.DebugContext(ctx, "Counterparty already credited", "transaction_id", t.ID)
			return nil
		}
	}

	credit := core.TransactionDraft{
		UserID:             payee.ID,
		Type:               core.TypeReceived,
		Amount:             t.Amount,
		Recipient:          payer.Name,
		RecipientAccountID: payer.PaymentAddress,
		Status:             core.StatusSuccess,
		Category:           t.Category,
	}.Record(creditID, t.Timestamp)

	if err := w.repo.ImportTransactions(ctx, []core.Transaction{credit}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Credited counterparty", applog.NewFields().
		WithOperation(applog.OpCredit).
		WithUserID(payee.ID).
		WithTransaction(credit.ID, credit.Type.String(), credit.Status.String(), credit.Amount.Paise, credit.Category).
		WithCounterparty(payer.PaymentAddress).
		ToSlice()...)
	return nil
}
