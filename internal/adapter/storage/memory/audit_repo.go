package memory

import (
	"context"
	"sync"

	"terminal-bank/internal/core/domain"
)

// AuditRepo keeps audit entries in insertion order.
type AuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

// Entries returns a snapshot of the recorded entries.
func (r *AuditRepo) Entries() []domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out
}
