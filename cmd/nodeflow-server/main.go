package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Nodeflow/internal/api"
	"github.com/shaiso/Nodeflow/internal/mq"
	"github.com/shaiso/Nodeflow/internal/nodes"
	"github.com/shaiso/Nodeflow/internal/orchestrator"
	"github.com/shaiso/Nodeflow/internal/repo"
	"github.com/shaiso/Nodeflow/internal/secrets"
	"github.com/shaiso/Nodeflow/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nodeflow_server_http_requests_total",
		Help: "Total HTTP requests handled by nodeflow_server",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting nodeflow-server")

	// Реестр узлов; секреты разрешаются из переменных окружения
	registry := nodes.DefaultRegistry(secrets.Env{}, logger)

	// События жизненного цикла: лог всегда, RabbitMQ — если задан AMQP_URL
	sink := telemetry.MultiSink{telemetry.NewLogSink(logger)}

	if url := os.Getenv("AMQP_URL"); url != "" {
		conn, err := mq.NewConnection(url, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(context.Background(), conn); err != nil {
			logger.Error("failed to setup mq topology", "error", err)
			os.Exit(1)
		}

		sink = append(sink, mq.NewEventPublisher(conn, logger))
		logger.Info("connected to rabbitmq")
	}

	engine := orchestrator.New(orchestrator.Config{
		Registry:               registry,
		MaxConcurrentWorkflows: envInt64("MAX_CONCURRENT_WORKFLOWS", 0),
		Sink:                   sink,
		Logger:                 logger,
	})

	// Персистентность определений — опциональна, включается через DB_URL
	var workflowRepo *repo.WorkflowRepo
	if os.Getenv("DB_URL") != "" {
		pool, err := repo.NewPool(context.Background())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("connected to database")

		workflowRepo = repo.NewWorkflowRepo(pool)

		// Восстанавливаем сохранённые определения в движок
		defs, err := workflowRepo.List(context.Background())
		if err != nil {
			logger.Error("failed to load workflow definitions", "error", err)
			os.Exit(1)
		}
		for _, def := range defs {
			if _, err := engine.Register(def); err != nil {
				logger.Warn("skipping invalid stored workflow",
					"workflow_id", def.ID, "error", err)
			}
		}
		logger.Info("restored workflow definitions", "count", len(defs))
	}

	// Запускаем планировщик расписаний
	engine.Start()
	defer engine.Stop()

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Engine:       engine,
		Registry:     registry,
		WorkflowRepo: workflowRepo,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

func envInt64(name string, fallback int64) int64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
