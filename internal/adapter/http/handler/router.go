package handler

import (
	"net/http"

	"banking-ledger/internal/adapter/http/middleware"
	redisStore "banking-ledger/internal/adapter/storage/redis"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/i18n"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20 // 1 MB

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AccountSvc     ports.AccountService
	LedgerSvc      ports.LedgerService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService         // nil = bearer auth disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	Localizer      *i18n.Localizer         // nil = English only
	Metrics        middleware.HTTPObserver // nil = no HTTP metrics
	MetricsHandler http.Handler            // served on /metrics when set
	OpenAPISpec    []byte
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	if deps.Localizer != nil {
		r.Use(middleware.Locale(deps.Localizer))
	}
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxRequestBody))
	if deps.Metrics != nil {
		r.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec(deps.OpenAPISpec))
	}

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := deps.RateLimitRules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	if deps.TokenSvc != nil {
		v1.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	}

	accountHandler := NewAccountHandler(deps.AccountSvc)
	transactionHandler := NewTransactionHandler(deps.LedgerSvc)
	reportHandler := NewReportHandler(deps.ReportingSvc)

	accounts := v1.Group("/accounts")
	{
		accounts.POST("", rl(middleware.GroupAccounts), accountHandler.Open)
		accounts.GET("/:id", rl(middleware.GroupQueries), accountHandler.Get)
		accounts.GET("/:id/balance", rl(middleware.GroupQueries), accountHandler.GetBalance)
		accounts.GET("/number/:accountNumber/transactions", rl(middleware.GroupQueries), transactionHandler.History)
	}

	transactions := v1.Group("/transactions")
	{
		transactions.POST("", rl(middleware.GroupTransactions), transactionHandler.Transfer)
		transactions.GET("/:id", rl(middleware.GroupQueries), transactionHandler.Get)
		transactions.POST("/:id/reversal", rl(middleware.GroupReversals), transactionHandler.Reverse)
	}

	v1.GET("/reports/summary", rl(middleware.GroupQueries), reportHandler.Summary)

	return r
}
