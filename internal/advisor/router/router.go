// Package router registers HTTP routes for the advisor service.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/finadvisor/internal/advisor/handler"
	"github.com/kart-io/finadvisor/internal/pkg/middleware"
)

// Register wires middlewares and routes onto the gin engine.
func Register(engine *gin.Engine, advisorHandler *handler.AdvisorHandler, tradeHandler *handler.TradeHandler) {
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.AccessLog(),
	)

	engine.GET("/healthz", advisorHandler.Healthz)

	v1 := engine.Group("/v1")
	{
		v1.POST("/ask", advisorHandler.Ask)
		v1.GET("/stats", advisorHandler.Stats)

		trade := v1.Group("/trade")
		{
			trade.POST("/buy", tradeHandler.Buy)
			trade.POST("/sell", tradeHandler.Sell)
		}
		v1.GET("/portfolio", tradeHandler.Portfolio)
	}
}
