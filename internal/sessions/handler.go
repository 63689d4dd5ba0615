package sessions

import (
	"errors"
	"net/http"

	"smm_go/internal/httputil"
	"smm_go/internal/orchestrator"
	"smm_go/pkg/router"

	"github.com/gin-gonic/gin"
)

// Handler обслуживает HTTP-запросы запуска сессий. Запуск синхронный:
// ответ приходит после завершения сессии со всеми её паузами, поэтому
// клиент должен быть готов к долгому запросу.
type Handler struct {
	Orch  *orchestrator.Orchestrator
	Table *router.Table
}

// NewHandler создаёт обработчик запуска сессий.
func NewHandler(orch *orchestrator.Orchestrator, table *router.Table) *Handler {
	return &Handler{Orch: orch, Table: table}
}

// Run разрешает токен расписания и выполняет сессию.
func (h *Handler) Run(c *gin.Context) {
	var request struct {
		Token      string `json:"token" binding:"required"`
		DryRun     bool   `json:"dry_run"`
		NoGenerate bool   `json:"no_generate"`
		NoPublish  bool   `json:"no_publish"`
		NoEngage   bool   `json:"no_engage"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	desc, err := h.Table.Resolve(request.Token, h.Orch.Now())
	if errors.Is(err, router.ErrUnknownToken) {
		httputil.RespondError(c, http.StatusNotFound, "неизвестный токен расписания: "+request.Token)
		return
	}
	if err != nil {
		httputil.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.Orch.Run(c.Request.Context(), desc, orchestrator.Modes{
		DryRun:     request.DryRun,
		NoGenerate: request.NoGenerate,
		NoPublish:  request.NoPublish,
		NoEngage:   request.NoEngage,
	})
	if err != nil {
		h.Orch.Log.WithError(err).Error("[HANDLER] сессия завершилась с ошибкой")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"summary": summary,
		})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Tokens возвращает список известных токенов расписания.
func (h *Handler) Tokens(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": h.Table.Tokens()})
}
