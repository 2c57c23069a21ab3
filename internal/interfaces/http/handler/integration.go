package handler

import (
	integrationapp "github.com/gasdist/backend/internal/application/integration"
	"github.com/gin-gonic/gin"
)

// ScanHandler resolves barcode scans
type ScanHandler struct {
	BaseHandler
	scanService *integrationapp.ScanService
}

// NewScanHandler creates a new ScanHandler
func NewScanHandler(base BaseHandler, scanService *integrationapp.ScanService) *ScanHandler {
	return &ScanHandler{BaseHandler: base, scanService: scanService}
}

// Resolve handles POST /api/scans
func (h *ScanHandler) Resolve(c *gin.Context) {
	var req integrationapp.ScanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.scanService.Resolve(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BackupHandler triggers and lists database backups
type BackupHandler struct {
	BaseHandler
	backupService *integrationapp.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(base BaseHandler, backupService *integrationapp.BackupService) *BackupHandler {
	return &BackupHandler{BaseHandler: base, backupService: backupService}
}

// Create handles POST /api/backups
func (h *BackupHandler) Create(c *gin.Context) {
	backup, err := h.backupService.Create(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, backup)
}

// List handles GET /api/backups
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backupService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, backups, int64(len(backups)))
}
