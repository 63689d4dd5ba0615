package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smm_go/internal/config"
	"smm_go/internal/logging"
	"smm_go/internal/middleware"
	"smm_go/internal/orchestrator"
	"smm_go/internal/sessions"
	"smm_go/internal/statistics"
	"smm_go/pkg/platform"
	"smm_go/pkg/router"
	"smm_go/pkg/storage"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

func main() {
	var (
		token      = flag.String("token", "", "токен расписания для запуска одной сессии")
		serve      = flag.Bool("serve", false, "запустить HTTP-сервер вместо разовой сессии")
		listTokens = flag.Bool("list-tokens", false, "показать известные токены расписания")
		dryRun     = flag.Bool("dry-run", false, "показать следующий пост к публикации, ничего не менять")
		noGenerate = flag.Bool("no-generate", false, "пропустить генерацию контента")
		noPublish  = flag.Bool("no-publish", false, "пропустить публикацию")
		noEngage   = flag.Bool("no-engage", false, "пропустить сессию вовлечения")
	)
	flag.Parse()

	// .env читается до создания логгера: LOG_LEVEL может прийти оттуда.
	config.LoadEnv(nil)
	log := logging.NewLoggerWithService("smm")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("конфигурация: %v", err)
	}

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("хранилище состояния: %v", err)
	}
	defer cleanup()

	table, err := buildTable(cfg)
	if err != nil {
		log.Fatalf("таблица маршрутизации: %v", err)
	}

	if *listTokens {
		for _, t := range table.Tokens() {
			fmt.Println(t)
		}
		return
	}

	orch := orchestrator.New(cfg, store, buildCollaborators(cfg), log, time.Now().UnixNano())

	if *serve {
		r := setupRouter(orch, table)
		port := getPort()
		log.Infof("запуск сервера на порту %s", port)
		if err := r.Run(":" + port); err != nil {
			log.Fatalf("сервер упал: %v", err)
		}
		return
	}

	if *token == "" {
		fmt.Fprintln(os.Stderr, "нужен -token (см. -list-tokens) или -serve")
		os.Exit(2)
	}

	desc, err := table.Resolve(*token, time.Now())
	if err != nil {
		log.Fatalf("разрешение токена: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, runErr := orch.Run(ctx, desc, orchestrator.Modes{
		DryRun:     *dryRun,
		NoGenerate: *noGenerate,
		NoPublish:  *noPublish,
		NoEngage:   *noEngage,
	})

	// Итог сессии печатается в stdout всегда, даже при ошибке: внешний
	// диспетчер собирает сводки из вывода процесса.
	if out, err := json.MarshalIndent(summary, "", "  "); err == nil {
		fmt.Println(string(out))
	}
	if runErr != nil {
		log.WithError(runErr).Error("сессия завершилась с ошибкой")
		os.Exit(1)
	}
}

// buildStore выбирает бэкенд хранилища снимков по конфигурации.
func buildStore(cfg *config.Config) (storage.StateStore, func(), error) {
	switch cfg.StateBackend {
	case config.BackendPostgres:
		conn, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return storage.NewPostgresStore(conn), func() { conn.Close() }, nil
	default:
		fs, err := storage.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// buildTable загружает таблицу маршрутизации из файла или берёт встроенную.
func buildTable(cfg *config.Config) (*router.Table, error) {
	if cfg.RoutingTablePath != "" {
		return router.LoadTable(cfg.RoutingTablePath)
	}
	return router.DefaultTable(cfg.AccountID), nil
}

// buildCollaborators собирает внешних коллабораторов. Сетевые клиенты
// платформ здесь заглушки: реальный вызов подключается отдельным
// адаптером, конвейер от него не зависит.
func buildCollaborators(cfg *config.Config) orchestrator.Collaborators {
	seed := time.Now().UnixNano()
	generator := &platform.FallbackGenerator{
		Fallback: platform.NewTemplateGenerator(cfg.Persona.CaptionTemplates, seed),
	}

	engagers := map[string]platform.Engager{}
	for _, pf := range cfg.Platforms {
		engagers[pf] = &platform.RetryEngager{Inner: platform.NoopEngager{}}
	}

	return orchestrator.Collaborators{
		Generator: generator,
		Media:     &platform.DirMediaFinder{Dir: cfg.MediaDir},
		Publisher: &platform.RetryPublisher{Inner: platform.NoopPublisher{}},
		Engagers:  engagers,
	}
}

// Функция получения порта из переменных окружения
func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}

// Настройка маршрутов
func setupRouter(orch *orchestrator.Orchestrator, table *router.Table) *gin.Engine {
	r := gin.Default()

	// Защита токеном подключается только при заданном API_TOKEN:
	// локальный запуск работает без заголовков.
	protected := r.Group("/")
	if token := os.Getenv("API_TOKEN"); token != "" {
		protected.Use(middleware.AuthRequired(token))
	}

	// Группа роутов запуска сессий
	sessionGroup := protected.Group("/session")
	sessions.SetupRoutes(sessionGroup, orch, table)

	// Группа роутов сводки дня
	statsGroup := protected.Group("/statistics")
	statistics.SetupRoutes(statsGroup, orch)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
