// Package memory is an in-process statement writer for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/core"
	ports "github.com/adiawaskar/smart-upi-poc/internal/sheets"
)

type Statement struct {
	mu   sync.Mutex
	loc  *time.Location
	rows [][]string
}

var _ ports.StatementWriter = (*Statement)(nil)

func New(loc *time.Location) *Statement {
	return &Statement{loc: loc}
}

// AppendStatement stores the row and returns a synthetic row reference.
func (s *Statement) AppendStatement(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.StatementRow(t, s.loc))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the rows written so far.
func (s *Statement) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
