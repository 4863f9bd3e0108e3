package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashmitsharp/erp-api/internal/logger"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	// PresignedURLExpiryMinutes is the expiry time for presigned URLs in minutes
	PresignedURLExpiryMinutes = 15
	// PresignedURLExpirySeconds is the expiry time for presigned URLs in seconds
	PresignedURLExpirySeconds = PresignedURLExpiryMinutes * 60

	defaultStartRow = 4
)

var (
	// AllowedContentTypes defines the content types that are allowed for upload
	AllowedContentTypes = map[string]bool{
		services.MimeCSV:  true,
		services.MimeXLSX: true,
	}
)

// StorageService interface defines methods for S3 operations
type StorageService interface {
	GenerateUploadKey(userID, filename string) (string, error)
	GeneratePresignedURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	UploadFile(ctx context.Context, key string, body []byte, contentType string) error
}

type FileValidator interface {
	ValidateBytes(data []byte, filename, contentType string) *services.ValidationResult
}

// SalesImporter runs one reconciliation over parsed sheet rows.
type SalesImporter interface {
	Run(ctx context.Context, userID uuid.UUID, rows []services.SheetRow, opts services.RunOptions) (*services.Report, error)
}

// ImporterFactory builds an importer for the given processing year, used to
// complete DD.MM dates.
type ImporterFactory func(year int) SalesImporter

// ImportHandler handles workbook upload and server-side sales imports
type ImportHandler struct {
	storage     StorageService
	validator   FileValidator
	newImporter ImporterFactory
}

func NewImportHandler(storage StorageService, validator FileValidator, newImporter ImporterFactory) *ImportHandler {
	return &ImportHandler{
		storage:     storage,
		validator:   validator,
		newImporter: newImporter,
	}
}

// GetPresignedURL generates a presigned URL for workbook upload
// Query params: filename (required), content_type (required)
// Returns: upload_url, file_key, expires_in
func (h *ImportHandler) GetPresignedURL(c fiber.Ctx) error {
	filename := c.Query("filename")
	contentType := c.Query("content_type")

	if filename == "" {
		return utils.NewBadRequestError("filename is required", nil)
	}
	if contentType == "" {
		return utils.NewBadRequestError("content_type is required", nil)
	}
	if !AllowedContentTypes[contentType] {
		return utils.NewBadRequestError("unsupported file type", nil)
	}

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	key, err := h.storage.GenerateUploadKey(userID.String(), filename)
	if err != nil {
		return utils.NewBadRequestError("failed to generate upload key", err.Error())
	}

	url, err := h.storage.GeneratePresignedURL(c.Context(), key, contentType, PresignedURLExpiryMinutes*time.Minute)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"upload_url": url,
		"file_key":   key,
		"expires_in": PresignedURLExpirySeconds,
	})
}

// ProcessImportRequest represents the request body for ProcessImport
type ProcessImportRequest struct {
	FileKey  string `json:"file_key"`
	Sheet    string `json:"sheet"`
	StartRow int    `json:"start_row"`
	Year     int    `json:"year"`
	DryRun   bool   `json:"dry_run"`
}

// ProcessImport reconciles an uploaded sales workbook against the ledger
// POST /v1/imports/process
// Body: {"file_key": "imports/<user>/1699564800-ab12cd34-vendas.xlsx", "sheet": "NOVEMBRO", "start_row": 4, "year": 2024}
func (h *ImportHandler) ProcessImport(c fiber.Ctx) error {
	var req ProcessImportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	if req.FileKey == "" {
		return utils.NewBadRequestError("file_key is required", nil)
	}

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	// Security check: Verify file belongs to user
	if !services.IsOwnedBy(req.FileKey, userID.String()) {
		return utils.NewForbiddenError("forbidden - cannot access this file")
	}

	if req.StartRow <= 0 {
		req.StartRow = defaultStartRow
	}
	if req.Year == 0 {
		req.Year = time.Now().Year()
	}
	if req.Year < 2000 || req.Year > 2100 {
		return utils.NewBadRequestError("year must be between 2000 and 2100", nil)
	}

	reader, err := h.storage.DownloadFile(c.Context(), req.FileKey)
	if err != nil {
		return utils.NewNotFoundError("file in storage")
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return err
	}

	filename := filepath.Base(req.FileKey)
	contentType := services.ContentTypeFor(filename)
	if result := h.validator.ValidateBytes(data, filename, contentType); !result.Valid {
		return utils.NewBadRequestError("invalid file", result.Errors)
	}

	var rows []services.SheetRow
	if contentType == services.MimeCSV {
		rows, err = services.ReadCSV(bytes.NewReader(data), req.StartRow)
	} else {
		rows, err = services.ReadXLSX(bytes.NewReader(data), req.Sheet, req.StartRow)
	}
	if err != nil {
		return utils.NewBadRequestError("failed to parse file", err.Error())
	}

	var preflight services.Preflight
	report, err := h.newImporter(req.Year).Run(c.Context(), userID, rows, services.RunOptions{
		Confirm: func(p services.Preflight) bool {
			preflight = p
			return !req.DryRun
		},
	})
	if err != nil {
		return err
	}

	log := logger.FromContext(c.Context())
	reportKey := ""
	if !req.DryRun {
		reportKey = services.ReportKey(req.FileKey)
		body, err := json.MarshalIndent(report, "", "  ")
		if err == nil {
			err = h.storage.UploadFile(c.Context(), reportKey, body, "application/json")
		}
		if err != nil {
			// The sales are already stored; a missing archive is not worth failing the request.
			log.Warn().Err(err).Str("key", reportKey).Msg("failed to archive import report")
			reportKey = ""
		}
	}
	log.Info().Str("file_key", req.FileKey).Bool("dry_run", req.DryRun).Msg(report.Summary())

	return c.JSON(buildImportSummary(req, filename, preflight, report, reportKey))
}

// buildImportSummary creates the response body for a processed import
func buildImportSummary(req ProcessImportRequest, filename string, preflight services.Preflight, report *services.Report, reportKey string) fiber.Map {
	status := "success"
	switch {
	case req.DryRun:
		status = "dry_run"
	case report.Interrupted:
		status = "interrupted"
	case len(report.Failed) > 0:
		status = "partial"
	}

	return fiber.Map{
		"file_key":   req.FileKey,
		"file_name":  strings.TrimSpace(filename),
		"sheet":      req.Sheet,
		"year":       req.Year,
		"preflight":  preflight,
		"report":     report,
		"report_key": reportKey,
		"status":     status,
	}
}
