package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aggrandize/bankrecon/internal/apperrors"
	"github.com/aggrandize/bankrecon/internal/core/domain"
	portssvc "github.com/aggrandize/bankrecon/internal/core/ports/services"
	"github.com/aggrandize/bankrecon/internal/dto"
	"github.com/aggrandize/bankrecon/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests for transaction review.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
	overrideService    portssvc.OverrideSvcFacade
}

func newTransactionHandler(ts portssvc.TransactionSvcFacade, os portssvc.OverrideSvcFacade) *transactionHandler {
	return &transactionHandler{transactionService: ts, overrideService: os}
}

// RegisterTransactionRoutes registers routes for browsing and overriding
// transaction matches. The statement-scoped listing lives under /statements
// so it shares the :id param with the statement routes.
func RegisterTransactionRoutes(rg *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade, overrideService portssvc.OverrideSvcFacade) {
	h := newTransactionHandler(transactionService, overrideService)

	rg.GET("/statements/:id/transactions", h.listStatementTransactions)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:id", h.getTransaction)
		transactions.POST("/:id/override", h.overrideTransaction)
		transactions.GET("/:id/audit", h.getAuditTrail)
	}
}

// listStatementTransactions godoc
// @Summary List a statement's transactions
// @Description Retrieves a statement's transactions ordered by transaction date, with cursor pagination and an optional match status filter
// @Tags transactions
// @Produce  json
// @Param   id path string true "Statement ID"
// @Param   status query string false "Filter by match status (unmatched, matched, manual, ignored)"
// @Param   limit query int false "Limit number of results" default(50)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Statement not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /statements/{id}/transactions [get]
func (h *transactionHandler) listStatementTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	statementID := c.Param("id")

	params := dto.ListTransactionsParams{}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.MatchStatus(statusStr)
		switch status {
		case domain.MatchUnmatched, domain.MatchMatched, domain.MatchManual, domain.MatchIgnored:
			params.Status = &status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter: " + statusStr})
			return
		}
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if token := c.Query("nextToken"); token != "" {
		params.NextToken = &token
	}

	page, err := h.transactionService.ListTransactionsByStatement(c.Request.Context(), statementID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Statement not found for transaction listing", slog.String("statement_id", statementID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Statement not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Invalid transaction listing request", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list transactions from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		}
		return
	}

	c.JSON(http.StatusOK, page)
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Description Retrieves one transaction, including its match state and any retained suggestion
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	txn, err := h.transactionService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Transaction not found", slog.String("transaction_id", transactionID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get transaction from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// overrideTransaction godoc
// @Summary Override a transaction's match
// @Description Applies a human review decision: confirm the retained suggestion, assign a specific entity, or ignore the transaction. Decisions are idempotent.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   override body dto.OverrideRequest true "Review decision"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid request format or decision"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to apply override"
// @Security BearerAuth
// @Router /transactions/{id}/override [post]
func (h *transactionHandler) overrideTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid override request format", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reviewerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Reviewer user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(
		slog.String("transaction_id", transactionID),
		slog.String("reviewer_user_id", reviewerID),
		slog.String("decision", req.Decision),
	)
	logger.Info("Received request to override transaction match")

	txn, err := h.overrideService.ApplyOverride(c.Request.Context(), transactionID, req, reviewerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Transaction not found for override")
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Invalid override decision", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to apply override in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply override"})
		}
		return
	}

	logger.Info("Override applied successfully", slog.String("match_status", string(txn.MatchStatus)))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// getAuditTrail godoc
// @Summary Get a transaction's audit trail
// @Description Retrieves the transaction's match decision history, oldest first
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.AuditTrailResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve audit trail"
// @Security BearerAuth
// @Router /transactions/{id}/audit [get]
func (h *transactionHandler) getAuditTrail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	logs, err := h.transactionService.GetAuditTrail(c.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Transaction not found for audit trail", slog.String("transaction_id", transactionID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		} else {
			logger.Error("Failed to get audit trail from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit trail"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.AuditTrailResponse{AuditLogs: dto.ToAuditLogResponses(logs)})
}
