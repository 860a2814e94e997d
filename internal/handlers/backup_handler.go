package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"

	"pos-engine/internal/models"
	"pos-engine/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxBackupUpload bounds an import body
const maxBackupUpload = 64 << 20

// BackupHandler handles snapshot export and restore
type BackupHandler struct {
	backupService services.BackupService
	logger        *logrus.Logger
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(backupService services.BackupService, logger *logrus.Logger) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		logger:        logger,
	}
}

// @Summary Export a backup
// @Description Writes a snapshot of every table to the backup store
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Success 201 {object} services.BackupResult
// @Router /backups [post]
func (h *BackupHandler) Export(c *gin.Context) {
	result, err := h.backupService.Export(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List returns stored backups, oldest first
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backupService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, backups)
}

// @Summary Download a backup
// @Tags backups
// @Produce json
// @Security BearerAuth
// @Param key path string true "Backup key"
// @Success 200 {object} models.BackupData
// @Failure 404 {object} ErrorResponse
// @Router /backups/{key} [get]
func (h *BackupHandler) Download(c *gin.Context) {
	key := c.Param("key")
	rc, err := h.backupService.Download(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.WithError(err).WithField("key", key).Error("Failed to stream backup")
	}
}

// @Summary Restore a backup
// @Description Replaces every table with the uploaded snapshot
// @Tags backups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param backup body models.BackupData true "Snapshot"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /backups/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	var data models.BackupData
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBackupUpload))
	if err := dec.Decode(&data); err != nil {
		badRequest(c, "Invalid backup file: "+err.Error())
		return
	}

	if err := h.backupService.Import(c.Request.Context(), &data); err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.WithField("user_id", actor(c).UserID).Warn("Database restored from backup")
	c.JSON(http.StatusOK, gin.H{"restored": true, "version": data.Version})
}
