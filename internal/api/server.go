// Package api wires the ordering core, the member directory, and the
// confirmation mailer behind the HTTP surface the web client and admin
// tooling consume.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/farmstand/internal/mailer"
	"github.com/MarkoPoloResearchLab/farmstand/internal/store/gridstore"
	"github.com/MarkoPoloResearchLab/farmstand/internal/store/sheetstore"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/directory"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/grid"
	"github.com/MarkoPoloResearchLab/farmstand/pkg/orders"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-Id"

// ledgerStore is everything the ordering core needs from one backend.
type ledgerStore interface {
	grid.ReadWriter
	orders.History
	orders.LedgerResolver
}

// Run boots the farm API using the supplied configuration.
func Run(ctx context.Context, cfg Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(store, store, store, cfg.OpenLedgerTitle,
		orders.WithOperationLogger(newZapOperationLogger(logger)))
	if err != nil {
		return err
	}
	directoryService, err := directory.NewService(store, cfg.UsersSheet, cfg.LocationsSheet)
	if err != nil {
		return err
	}

	var confirmations *mailer.Confirmations
	if cfg.EmailConfigured() {
		sender, err := mailer.NewSESSender(ctx, mailer.SESConfig{
			Source:           cfg.EmailSource,
			Template:         cfg.EmailTemplate,
			ConfigurationSet: cfg.EmailConfigurationSet,
		})
		if err != nil {
			return err
		}
		confirmations = mailer.NewConfirmations(sender, logger)
	} else {
		logger.Warn("email delivery not configured; confirmation endpoint disabled")
	}

	handler := &httpHandler{
		logger:        logger,
		orders:        ordersService,
		directory:     directoryService,
		confirmations: confirmations,
		serializer:    newIdentitySerializer(),
	}
	router := setupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("farmapi listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func openStore(ctx context.Context, cfg Config) (ledgerStore, error) {
	if cfg.GridStorePath != "" {
		return gridstore.Open(cfg.GridStorePath)
	}
	return sheetstore.New(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
}

func setupRouter(cfg Config, handler *httpHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/users/:id", handler.handleGetUser)
	router.GET("/products", handler.handleGetProducts)
	router.PUT("/products/:id", handler.handleSetOrdered)
	router.GET("/orders", handler.handleListOrders)
	router.GET("/orders/:id", handler.handleGetOrder)
	router.POST("/admin/confirmation-emails", handler.handleConfirmationEmails)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(requestIDHeader, requestID)
		started := time.Now()
		ctx.Next()
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

// zapOperationLogger forwards core operation logs to zap.
type zapOperationLogger struct {
	logger *zap.Logger
}

func newZapOperationLogger(logger *zap.Logger) *zapOperationLogger {
	return &zapOperationLogger{logger: logger}
}

func (operationLogger *zapOperationLogger) LogOperation(_ context.Context, entry orders.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("identity", entry.Identity.String()),
		zap.String("ledger", entry.Ledger),
		zap.String("status", entry.Status),
	}
	if entry.ProductID != 0 {
		fields = append(fields, zap.Int("product_id", int(entry.ProductID)), zap.Int("quantity", entry.Quantity))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn("ledger operation", fields...)
		return
	}
	operationLogger.logger.Info("ledger operation", fields...)
}
