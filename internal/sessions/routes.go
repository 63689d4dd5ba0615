package sessions

import (
	"log"

	"smm_go/internal/orchestrator"
	"smm_go/pkg/router"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.RouterGroup, orch *orchestrator.Orchestrator, table *router.Table) {
	handler := NewHandler(orch, table)
	r.POST("/run", handler.Run)
	r.GET("/tokens", handler.Tokens)
	log.Printf("[ROUTER] Session routes registered")
}
