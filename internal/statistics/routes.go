package statistics

import (
	"log"

	"smm_go/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.RouterGroup, orch *orchestrator.Orchestrator) {
	handler := NewHandler(orch)
	r.GET("/report", handler.Report)
	log.Printf("[ROUTER] Statistics routes registered")
}
