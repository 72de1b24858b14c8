// Package sheets exports payment records to spreadsheet statements.
package sheets

import (
	"context"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
)

// Ports for outbound adapters.
type (
	StatementWriter interface {
		// AppendStatement adds one row for t and returns a reference to it.
		AppendStatement(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}
)

// StatementHeader names the columns written by StatementRow.
var StatementHeader = []string{
	"Date", "Time", "Transaction ID", "User ID", "Type",
	"Counterparty", "Counterparty Address", "Category", "Status", "Amount (INR)",
}

// StatementRow renders t as a statement row with times in loc.
func StatementRow(t core.Transaction, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	at := t.Timestamp.In(loc)
	return []string{
		at.Format(time.DateOnly),
		at.Format("15:04:05"),
		t.ID,
		t.UserID,
		string(t.Type),
		t.Recipient,
		t.RecipientAccountID,
		t.Category,
		string(t.Status),
		t.Amount.String(),
	}
}
