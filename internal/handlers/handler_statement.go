package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/aggrandize/bankrecon/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// statementHandler handles HTTP requests related to bank statements.
type statementHandler struct {
	statementService      portssvc.StatementSvcFacade
	reconciliationService portssvc.ReconciliationSvcFacade
	maxUploadSize         int64
}

func newStatementHandler(ss portssvc.StatementSvcFacade, rs portssvc.ReconciliationSvcFacade, maxUploadSize int64) *statementHandler {
	return &statementHandler{
		statementService:      ss,
		reconciliationService: rs,
		maxUploadSize:         maxUploadSize,
	}
}

// registerStatementRoutes registers routes related to bank statements.
// Uploads get their own IP rate limit; everything else rides the group's auth.
func registerStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade, reconciliationService portssvc.ReconciliationSvcFacade, cfg *config.Config) {
	h := newStatementHandler(statementService, reconciliationService, cfg.MaxUploadSizeBytes)

	rate, err := limiter.NewRateFromFormatted(cfg.UploadRateLimit)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("10-M")
	}
	store := memory.NewStore()
	uploadLimiter := limiter.New(store, rate)

	statements := rg.Group("/statements")
	{
		statements.POST("", middleware.RateLimit(uploadLimiter), h.submitStatement)
		statements.GET("", h.listStatements)
		statements.GET("/:id", h.getStatement)
		statements.DELETE("/:id", h.deleteStatement)
		statements.POST("/:id/reconcile", h.reconcileStatement)
		statements.GET("/:id/summary", h.getStatementSummary)
	}
}

// submitStatement godoc
// @Summary Upload a bank statement
// @Description Uploads a statement file and processes it synchronously: extraction, normalization and an initial reconciliation run. An extraction failure yields a statement in the failed state, not an HTTP error.
// @Tags statements
// @Accept  multipart/form-data
// @Produce  json
// @Param   file formData file true "Statement file (pdf, csv, png, jpeg)"
// @Param   accountID formData string false "Owning account; resolved from the statement when omitted"
// @Success 201 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Missing or unreadable file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 413 {object} map[string]string "File too large"
// @Failure 429 {object} map[string]string "Too many uploads"
// @Failure 500 {object} map[string]string "Failed to process statement"
// @Security BearerAuth
// @Router /statements [post]
func (h *statementHandler) submitStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	uploaderID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Uploader user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Statement upload without a file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A statement file is required"})
		return
	}
	if file.Size > h.maxUploadSize {
		logger.Warn("Statement upload too large", slog.Int64("size", file.Size), slog.Int64("max", h.maxUploadSize))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Statement file exceeds the upload size limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded file"})
		return
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the uploaded file"})
		return
	}

	input := dto.SubmitStatementInput{
		FileName:  file.Filename,
		MimeType:  file.Header.Get("Content-Type"),
		FileBytes: fileBytes,
	}
	if accountID := c.PostForm("accountID"); accountID != "" {
		input.AccountID = &accountID
	}

	logger = logger.With(slog.String("uploader_user_id", uploaderID), slog.String("file_name", input.FileName))
	logger.Info("Received statement upload", slog.String("mime_type", input.MimeType), slog.Int64("size", file.Size))

	statement, err := h.statementService.SubmitStatement(c.Request.Context(), input, uploaderID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error submitting statement", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to process statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process statement"})
		}
		return
	}

	logger.Info("Statement processed", slog.String("statement_id", statement.StatementID), slog.String("status", string(statement.Status)))
	c.JSON(http.StatusCreated, dto.ToStatementResponse(statement))
}

// listStatements godoc
// @Summary List statements
// @Description Retrieves statements newest first, optionally filtered by account and/or processing status
// @Tags statements
// @Produce  json
// @Param   accountID query string false "Filter by owning account"
// @Param   status query string false "Filter by status (pending, processing, completed, failed)"
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListStatementsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list statements"
// @Security BearerAuth
// @Router /statements [get]
func (h *statementHandler) listStatements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListStatementsParams{}
	if accountID := c.Query("accountID"); accountID != "" {
		params.AccountID = &accountID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.StatementStatus(statusStr)
		switch status {
		case domain.StatementPending, domain.StatementProcessing, domain.StatementCompleted, domain.StatementFailed:
			params.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter: " + statusStr})
			return
		}
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	statements, err := h.statementService.ListStatements(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to list statements from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list statements"})
		return
	}

	c.JSON(http.StatusOK, dto.ListStatementsResponse{Statements: dto.ToStatementResponses(statements)})
}

// getStatement godoc
// @Summary Get a statement by ID
// @Description Retrieves one statement including its processing state and totals
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.StatementResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to retrieve statement"
// @Security BearerAuth
// @Router /statements/{id} [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("id")

	statement, err := h.statementService.GetStatementByID(c.Request.Context(), statementID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement not found", slog.String("statement_id", statementID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		} else {
			logger.Error("Failed to get statement from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statement"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementResponse(statement))
}

// deleteStatement godoc
// @Summary Delete a statement
// @Description Removes a statement and all of its transactions
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID to delete"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to delete statement"
// @Security BearerAuth
// @Router /statements/{id} [delete]
func (h *statementHandler) deleteStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("statement_id", statementID), slog.String("deleter_user_id", userID))
	logger.Info("Received request to delete statement")

	if err := h.statementService.DeleteStatement(c.Request.Context(), statementID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement not found for deletion")
			c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		} else {
			logger.Error("Failed to delete statement in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete statement"})
		}
		return
	}

	logger.Info("Statement deleted successfully")
	c.Status(http.StatusNoContent)
}

// reconcileStatement godoc
// @Summary Re-run reconciliation
// @Description Runs reconciliation over the statement's unmatched transactions. Settled rows are never touched, so re-running is safe.
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.ReconciliationSummary
// @Failure 400 {object} map[string]string "Statement not ready for reconciliation"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Reconciliation failed"
// @Security BearerAuth
// @Router /statements/{id}/reconcile [post]
func (h *statementHandler) reconcileStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("statement_id", statementID), slog.String("actor_user_id", userID))
	logger.Info("Received request to reconcile statement")

	summary, err := h.reconciliationService.Run(c.Request.Context(), statementID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement not found for reconciliation")
			c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Statement not ready for reconciliation", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Reconciliation run failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Reconciliation failed"})
		}
		return
	}

	logger.Info("Reconciliation run completed", slog.Int("matched", summary.Matched), slog.Int("unmatched", summary.Unmatched))
	c.JSON(http.StatusOK, summary)
}

// getStatementSummary godoc
// @Summary Get a statement's match summary
// @Description Aggregates the statement's transactions by match status with credit and debit totals
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.StatementSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to summarize statement"
// @Security BearerAuth
// @Router /statements/{id}/summary [get]
func (h *statementHandler) getStatementSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("id")

	summary, err := h.statementService.GetStatementSummary(c.Request.Context(), statementID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement not found for summary", slog.String("statement_id", statementID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		} else {
			logger.Error("Failed to summarize statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize statement"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
