package router

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"airdrop-backend/internal/app"
	"airdrop-backend/internal/config"
	"airdrop-backend/internal/handlers"
	"airdrop-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// corsMiddleware CORS middleware
// Priority: Environment Variable > YAML Config > Default (*)
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowedOrigins := []string{"*"}
		maxAge := 3600
		if envOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); envOrigins != "" {
			allowedOrigins = strings.Split(envOrigins, ",")
		} else if config.AppConfig != nil && len(config.AppConfig.CORS.AllowedOrigins) > 0 {
			allowedOrigins = config.AppConfig.CORS.AllowedOrigins
			if config.AppConfig.CORS.MaxAge > 0 {
				maxAge = config.AppConfig.CORS.MaxAge
			}
		}

		origin := c.GetHeader("Origin")
		if len(allowedOrigins) == 1 && strings.TrimSpace(allowedOrigins[0]) == "*" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.SenderHeader)
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter wires the public claim surface, queries, admin endpoints and
// operational routes.
func SetupRouter(container *app.ServiceContainer) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware())

	logger := logrus.StandardLogger()
	var allowedIPs []string
	if config.AppConfig != nil {
		allowedIPs = config.AppConfig.Admin.AllowedIPs
	}
	localhostOnly := middleware.NewLocalhostOnly(logger, allowedIPs)

	// ============ Health ============
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", handlers.HealthCheckHandler)

	// ============ Prometheus Metrics ============
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============ API Routes ============
	v1 := r.Group("/api/v1")
	{
		// Mutation surface: proof claims require a resolved effective
		// sender; voucher claims may be relayed by anyone.
		v1.POST("/claims/merkle", middleware.ResolveSender(), container.ClaimHandler.MerkleClaimHandler)
		v1.POST("/claims/voucher", container.ClaimHandler.VoucherClaimHandler)

		// Query surface
		v1.GET("/claims/:index", container.ClaimHandler.IsClaimedHandler)
		v1.GET("/nonces/:address", container.ClaimHandler.NonceHandler)
		v1.GET("/distribution", container.ClaimHandler.DistributionInfoHandler)
		v1.GET("/vault/balances/:token/:holder", container.VaultHandler.BalanceHandler)

		// Admin surface (localhost / allowlisted IPs only)
		admin := v1.Group("/admin", localhostOnly.Restrict())
		{
			admin.POST("/vault/fund", container.VaultHandler.FundHandler)
		}
	}

	// ============ NoRoute handler for 404 ============
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message":    "Endpoint not found",
			"path":       c.Request.URL.Path,
			"suggestion": "Check /api/v1 endpoints for available APIs",
		})
	})

	return r
}
