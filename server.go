package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/restodata/resto_backend/config"
	"github.com/restodata/resto_backend/models"
	"github.com/restodata/resto_backend/utils"
	"github.com/restodata/resto_backend/workflow"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("resto-settlement")

// app holds the wired services. Services are nil until the database is
// connected; handlers answer 503 in that window.
type app struct {
	cfg         *config.AppConfig
	evaluator   *workflow.ClosureEvaluator
	remediation *workflow.RemediationService
	dayClose    *workflow.DayCloseService
}

func (a *app) ready() bool {
	return a.evaluator != nil && a.remediation != nil && a.dayClose != nil
}

func notReady(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "service starting, database not connected yet",
	})
}

func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Next()
	}
}

func main() {
	cfg := config.LoadAppConfig()
	logger := config.GetLogger()

	a := &app{cfg: cfg}

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(correlationMiddleware())

	r.GET("/health", a.healthHandler)

	api := r.Group("/api")
	{
		api.GET("/closure-status/:date", a.closureStatusHandler)
		api.GET("/business-day/:date", a.businessDayStatusHandler)
		api.POST("/business-day/open/:date", a.openBusinessDayHandler)
		api.POST("/business-day/close/:date", a.closeBusinessDayHandler)
		api.GET("/sales/:date", a.salesSummaryHandler)
		api.GET("/reports/daily-closure/:date", a.dailyClosureReportHandler)

		admin := api.Group("/admin")
		{
			admin.POST("/process-pending-transactions", a.processPendingHandler)
			admin.POST("/force-close-shifts", a.forceCloseShiftsHandler)
			admin.PUT("/pos/:posId/status", a.posStatusHandler)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Infof("settlement backend listening on :%s (local_id=%s)", cfg.Port, cfg.LocalId)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	// Connect AFTER the server is listening; Cloud Run needs a fast bind.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	a.evaluator = workflow.NewClosureEvaluator(db, logger, cfg)
	a.remediation = workflow.NewRemediationService(db, logger)
	a.dayClose = workflow.NewDayCloseService(db, logger, cfg, a.evaluator)

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := workflow.NewOutboxDispatcher(db, logger, cfg)
	go dispatcher.Run(dispatcherCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopDispatcher()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
}

func (a *app) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"local_id":  a.cfg.LocalId,
		"database":  config.GetDB() != nil,
		"timestamp": time.Now().UTC(),
	})
}
