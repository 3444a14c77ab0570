package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nxtech/credits_ledger_app/internal/apperrors"
	"github.com/nxtech/credits_ledger_app/internal/core/domain"
	portssvc "github.com/nxtech/credits_ledger_app/internal/core/ports/services"
	"github.com/nxtech/credits_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// CreditsHandler exposes the ledger engine over HTTP. It is a thin layer:
// validation beyond request shape and all balance logic live in the service.
type CreditsHandler struct {
	ledgerSvc portssvc.LedgerSvcFacade
}

func NewCreditsHandler(ledgerSvc portssvc.LedgerSvcFacade) *CreditsHandler {
	return &CreditsHandler{ledgerSvc: ledgerSvc}
}

func accountFromPath(c *gin.Context) domain.AccountRef {
	return domain.AccountRef{Kind: c.Param("kind"), ID: c.Param("id")}
}

// respondError maps engine error kinds to HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTransientConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "ledger busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// AddCredits godoc
// @Summary Add credits to an account
// @Description Appends a credit entry and returns it with the new running balance
// @Tags credits
// @Accept json
// @Produce json
// @Param kind path string true "Account kind"
// @Param id path string true "Account ID"
// @Param request body dto.CreditMutationRequest true "Amount, description, metadata"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string
// @Router /accounts/{kind}/{id}/credits [post]
func (h *CreditsHandler) AddCredits(c *gin.Context) {
	var req dto.CreditMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.ledgerSvc.Add(c.Request.Context(), accountFromPath(c), req.Amount, req.Description, req.Metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToEntryResponse(*entry))
}

// DeductCredits godoc
// @Summary Deduct credits from an account
// @Description Appends a debit entry, enforcing the negative-balance policy
// @Tags credits
// @Accept json
// @Produce json
// @Param kind path string true "Account kind"
// @Param id path string true "Account ID"
// @Param request body dto.CreditMutationRequest true "Amount, description, metadata"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /accounts/{kind}/{id}/credits/deduct [post]
func (h *CreditsHandler) DeductCredits(c *gin.Context) {
	var req dto.CreditMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.ledgerSvc.Deduct(c.Request.Context(), accountFromPath(c), req.Amount, req.Description, req.Metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToEntryResponse(*entry))
}

// TransferCredits godoc
// @Summary Transfer credits between accounts
// @Description Atomically debits the sender and credits the recipient
// @Tags credits
// @Accept json
// @Produce json
// @Param kind path string true "Sender account kind"
// @Param id path string true "Sender account ID"
// @Param request body dto.TransferRequest true "Recipient, amount, description, metadata"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /accounts/{kind}/{id}/credits/transfer [post]
func (h *CreditsHandler) TransferCredits(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sender := accountFromPath(c)
	recipient := domain.AccountRef{Kind: req.RecipientKind, ID: req.RecipientID}
	result, err := h.ledgerSvc.Transfer(c.Request.Context(), sender, recipient, req.Amount, req.Description, req.Metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransferResponse(*result))
}

// GetBalance godoc
// @Summary Get the current or historical balance of an account
// @Description Returns the derived balance; "at" (RFC3339) or "epoch" (+ optional "unit") select a point in time
// @Tags credits
// @Produce json
// @Param kind path string true "Account kind"
// @Param id path string true "Account ID"
// @Param at query string false "RFC3339 timestamp"
// @Param epoch query int false "Unix epoch (seconds or milliseconds)"
// @Param unit query string false "Epoch unit: s or ms"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string
// @Router /accounts/{kind}/{id}/credits/balance [get]
func (h *CreditsHandler) GetBalance(c *gin.Context) {
	account := accountFromPath(c)
	ctx := c.Request.Context()

	var err error
	balance := decimal.Zero
	switch {
	case c.Query("at") != "":
		at, parseErr := time.Parse(time.RFC3339, c.Query("at"))
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'at' timestamp, expected RFC3339"})
			return
		}
		balance, err = h.ledgerSvc.BalanceAt(ctx, account, at)
	case c.Query("epoch") != "":
		epoch, parseErr := strconv.ParseInt(c.Query("epoch"), 10, 64)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'epoch' value, expected integer"})
			return
		}
		balance, err = h.ledgerSvc.BalanceAtEpoch(ctx, account, epoch, c.Query("unit"))
	default:
		balance, err = h.ledgerSvc.Balance(ctx, account)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountKind: account.Kind,
		AccountID:   account.ID,
		Balance:     balance,
	})
}

// GetHistory godoc
// @Summary List an account's ledger entries
// @Description Entries ordered by created_at then id; limit clamped to [1,1000]; order asc or desc (default desc)
// @Tags credits
// @Produce json
// @Param kind path string true "Account kind"
// @Param id path string true "Account ID"
// @Param limit query int false "Maximum entries to return"
// @Param order query string false "asc or desc"
// @Success 200 {object} dto.HistoryResponse
// @Router /accounts/{kind}/{id}/credits/history [get]
func (h *CreditsHandler) GetHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' value, expected integer"})
		return
	}

	entries, err := h.ledgerSvc.History(c.Request.Context(), accountFromPath(c), limit, c.DefaultQuery("order", "desc"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{Entries: dto.ToEntryResponses(entries)})
}
