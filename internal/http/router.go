// Package httpapi wires the HTTP transport (Gin) to the interactions webhook
// and the admin API. It owns middleware ordering: tracing, correlation ids,
// redacted access logs, panic recovery, metrics, CORS, security headers,
// signature verification and rate limiting.
package httpapi

import (
	"crypto/ed25519"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-tellonym/internal/config"
	"github.com/tbourn/go-tellonym/internal/http/handlers"
	"github.com/tbourn/go-tellonym/internal/http/middleware"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps are the collaborators the routes dispatch to.
type Deps struct {
	Interactions *handlers.Interactions
	Admin        handlers.AdminService
	PublicKey    ed25519.PublicKey
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (signature headers masked)
//  4. Recovery
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers
//
// The webhook then verifies the signature, decodes the interaction and rate
// limits per acting user. The admin group requires the bearer token.
func RegisterRoutes(r *gin.Engine, cfg config.Config, d Deps) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Signature-Ed25519", "X-Signature-Timestamp"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	useCORS(r, cfg.CORS.AllowedOrigins)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if d.Interactions != nil {
		edge := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		r.POST("/interactions",
			middleware.VerifySignature(d.PublicKey),
			d.Interactions.Decode(),
			edge.Handler(),
			d.Interactions.Handle,
		)
	}

	if d.Admin != nil {
		h := handlers.New(d.Admin)
		adminLimiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

		admin := groupWithPrefix(r, cfg.APIBasePath).Group("/admin")
		admin.Use(
			gzip.Gzip(gzip.DefaultCompression),
			middleware.BearerAuth(cfg.AdminToken),
			adminLimiter.Handler(),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
		)
		{
			admin.GET("/settings", h.GetSettings)
			admin.PATCH("/settings", h.UpdateSettings)

			admin.GET("/bans", h.ListBans)
			admin.PUT("/bans/:user_id", h.Ban)
			admin.DELETE("/bans/:user_id", h.Unban)

			admin.GET("/stats/messages", h.MessageStats)
			admin.DELETE("/stats/messages", h.ResetMessageStats)
			admin.GET("/stats/rate", h.RateStats)
		}
	}
}

// useCORS allows every origin when none are configured, otherwise echoes
// allowlisted origins.
func useCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		// ACAO: * even without an Origin header, for health checks and curl.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
