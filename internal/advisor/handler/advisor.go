// Package handler provides HTTP handlers for the advisor service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/finadvisor/internal/advisor/biz"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// queryTimeout bounds a single ask request end to end.
const queryTimeout = 60 * time.Second

// AdvisorHandler handles question-answering HTTP requests.
type AdvisorHandler struct {
	service biz.Service
}

// NewAdvisorHandler creates a new AdvisorHandler.
func NewAdvisorHandler(service biz.Service) *AdvisorHandler {
	return &AdvisorHandler{service: service}
}

// SuccessResponse is a standard success response.
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// respondError maps any error to its errno and writes the error response.
func respondError(c *gin.Context, err error) {
	errno := errors.FromError(err)
	c.JSON(errno.HTTPStatus(), ErrorResponse{
		Code:    errno.Code,
		Message: errno.Message(c.GetHeader("Accept-Language")),
	})
}

// AskRequest represents an ask request.
type AskRequest struct {
	Question string `json:"question"`
}

// Ask answers a question grounded on the indexed documents.
func (h *AdvisorHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrBadRequest.WithCause(err))
		return
	}

	// 添加 60 秒超时控制
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := h.service.Ask(ctx, req.Question)
	if err != nil {
		// 检查是否超时
		if ctx.Err() == context.DeadlineExceeded {
			respondError(c, errors.ErrQueryTimeout)
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// Stats returns knowledge base and service statistics.
func (h *AdvisorHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: stats})
}

// Healthz reports process liveness.
func (h *AdvisorHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
