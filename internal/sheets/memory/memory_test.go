package memory

import (
	"context"
	"testing"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	ports "github.com/adiawaskar/smart-upi-poc/internal/sheets"
)

func TestStatementAppend(t *testing.T) {
	s := New(nil)
	tx := core.Transaction{
		ID:                 "tx-9",
		UserID:             "u1",
		Type:               core.TypeReceived,
		Amount:             core.Rupees(500),
		Recipient:          "Alice Brown",
		RecipientAccountID: "alice@smartupi",
		Status:             core.StatusSuccess,
		Timestamp:          time.Date(2025, 10, 16, 23, 59, 0, 0, time.UTC),
	}

	ref, err := s.AppendStatement(context.Background(), tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}

	rows := s.Rows()
	if len(rows) != 1 || len(rows[0]) != len(ports.StatementHeader) {
		t.Fatalf("unexpected rows %v", rows)
	}
	if rows[0][0] != "2025-10-16" || rows[0][9] != "500.00" || rows[0][7] != "" {
		t.Fatalf("unexpected row %v", rows[0])
	}

	tx.Recipient = ""
	if _, err := s.AppendStatement(context.Background(), tx); err == nil {
		t.Fatal("expected validation error")
	}
}
