package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/finadvisor/internal/advisor/biz"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// TradeHandler handles paper trading HTTP requests.
type TradeHandler struct {
	book *biz.Book
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(book *biz.Book) *TradeHandler {
	return &TradeHandler{book: book}
}

// TradeRequest represents a buy or sell request.
type TradeRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// Buy buys shares at the static quote.
func (h *TradeHandler) Buy(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrBadRequest.WithCause(err))
		return
	}

	portfolio, err := h.book.Buy(req.Symbol, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: portfolio})
}

// Sell sells shares at the static quote.
func (h *TradeHandler) Sell(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrBadRequest.WithCause(err))
		return
	}

	portfolio, err := h.book.Sell(req.Symbol, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: portfolio})
}

// Portfolio returns the current account snapshot.
func (h *TradeHandler) Portfolio(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: h.book.Portfolio()})
}
