package handler

import (
	"fmt"
	"strconv"
	"strings"

	"banking-ledger/internal/adapter/http/dto"
	"banking-ledger/internal/adapter/http/middleware"
	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"
	"banking-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles transfer, reversal and history endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

// Transfer handles POST /api/v1/transactions.
func (h *TransactionHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindingError(err))
		return
	}
	dto.SanitizeStruct(&req)

	conf, err := h.ledgerSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		SourceAccount:      req.SourceAccount,
		DestinationAccount: req.DestinationAccount,
		Value:              req.Value,
		IdempotencyKey:     strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey)),
		Subject:            c.GetString(middleware.CtxSubject),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if conf.Transaction != nil {
		c.Set(middleware.CtxResourceID, conf.Transaction.ID.String())
	}
	response.Created(c, toConfirmationResponse(c, conf))
}

// Get handles GET /api/v1/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrTransactionNotFound())
		return
	}

	txn, err := h.ledgerSvc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToTransactionResponse(txn))
}

// Reverse handles POST /api/v1/transactions/:id/reversal.
func (h *TransactionHandler) Reverse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrTransactionNotFound())
		return
	}

	conf, err := h.ledgerSvc.Reverse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, id.String())
	response.OK(c, toConfirmationResponse(c, conf))
}

// History handles GET /api/v1/accounts/number/:accountNumber/transactions.
// Unparsable paging parameters fall back to the defaults.
func (h *TransactionHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))

	result, err := h.ledgerSvc.ListTransactions(c.Request.Context(), c.Param("accountNumber"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, dto.ToTransactionResponse(&result.Items[i]))
	}

	response.OK(c, dto.TransactionPageResponse{
		Items:         items,
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages(),
		Links:         pageLinks(c.Request.URL.Path, result),
	})
}

func toConfirmationResponse(c *gin.Context, conf *ports.Confirmation) dto.ConfirmationResponse {
	resp := dto.ConfirmationResponse{
		Message: response.Localize(c, conf.Key, conf.Message),
	}
	if conf.Transaction != nil {
		tx := dto.ToTransactionResponse(conf.Transaction)
		resp.Transaction = &tx
	}
	return resp
}

func pageLinks(path string, p *domain.TransactionPage) dto.PageLinks {
	link := func(page int) string {
		return fmt.Sprintf("%s?page=%d&size=%d", path, page, p.Size)
	}

	links := dto.PageLinks{Self: link(p.Page)}
	if p.HasNext() {
		next := link(p.Page + 1)
		links.Next = &next
	}
	if p.HasPrevious() {
		prev := link(p.Page - 1)
		links.Previous = &prev
	}
	return links
}
