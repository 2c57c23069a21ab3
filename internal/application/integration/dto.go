package integration

import (
	"time"

	"github.com/gasdist/backend/internal/application/partner"
	"github.com/gasdist/backend/internal/application/sales"
	"github.com/gasdist/backend/internal/domain/integration"
)

// =============================================================================
// Scan DTOs
// =============================================================================

// ScanRequest carries raw scanner input
type ScanRequest struct {
	Raw string `json:"raw" binding:"required,max=256"`
}

// Scan match kinds
const (
	MatchTransaction = "transaction"
	MatchCustomer    = "customer"
)

// ScanResponse is the record a scanned code resolved to. Exactly one of
// Transaction and Customer is set, as named by Match.
type ScanResponse struct {
	Code        string                     `json:"code"`
	Symbology   string                     `json:"symbology"`
	Match       string                     `json:"match"`
	Transaction *sales.TransactionResponse `json:"transaction,omitempty"`
	Customer    *partner.CustomerResponse  `json:"customer,omitempty"`
}

// =============================================================================
// Backup DTOs
// =============================================================================

// BackupResponse describes a stored backup archive
type BackupResponse struct {
	Name      string         `json:"name"`
	Location  string         `json:"location"`
	Size      int64          `json:"size"`
	Tables    map[string]int `json:"tables,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToBackupResponse converts a backup reference to a response
func ToBackupResponse(ref integration.BackupRef) BackupResponse {
	return BackupResponse{
		Name:      ref.Name,
		Location:  ref.Location,
		Size:      ref.Size,
		CreatedAt: ref.CreatedAt,
	}
}

// backupDocument is the JSON layout of a backup archive
type backupDocument struct {
	Version   int                         `json:"version"`
	CreatedAt time.Time                   `json:"createdAt"`
	Tables    map[string][]map[string]any `json:"tables"`
}

const backupFormatVersion = 1
