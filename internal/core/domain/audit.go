package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister         AuditAction = "REGISTER"
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionLogout           AuditAction = "LOGOUT"
	AuditActionWithdraw         AuditAction = "WITHDRAW"
	AuditActionTransfer         AuditAction = "TRANSFER"
	AuditActionTransferReversed AuditAction = "TRANSFER_REVERSED"
	AuditActionStatusChange     AuditAction = "STATUS_CHANGE"
	AuditActionDelete           AuditAction = "DELETE"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID         uuid.UUID   `json:"id"`
	AccountID  *uuid.UUID  `json:"account_id,omitempty"`
	Action     AuditAction `json:"action"`
	ResourceID string      `json:"resource_id,omitempty"`
	Details    string      `json:"details,omitempty"` // JSON string
	CreatedAt  time.Time   `json:"created_at"`
}
