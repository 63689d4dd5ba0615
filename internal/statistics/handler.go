package statistics

import (
	"net/http"

	"smm_go/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

// Handler обслуживает HTTP-запросы, связанные со сводкой дня.
type Handler struct {
	Orch *orchestrator.Orchestrator
}

// NewHandler создаёт новый обработчик сводки.
func NewHandler(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

// Report собирает дневную сводку по текущему снимку состояния.
func (h *Handler) Report(c *gin.Context) {
	c.JSON(http.StatusOK, h.Orch.BuildReport())
}
