package http

import (
	"errors"
	"net/http"

	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteDeps groups what SetupRoutes wires together.
type RouteDeps struct {
	Telegram     *TelegramHandler
	Admin        *AdminHandler
	Auth         *usecases.AuthUsecase
	Middleware   *Middleware
	MaxBodyBytes int64
}

func SetupRoutes(r *gin.Engine, deps RouteDeps) {
	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r.Use(deps.Middleware.RequestLogger())
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(maxBody))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "proyecto-reservas activo"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public Webhook Routes
	deps.Telegram.RegisterRoutes(r)

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Username string `json:"username" binding:"required"`
				Password string `json:"password" binding:"required"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			if deps.Auth == nil || !deps.Auth.Enabled() {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Admin login disabled"})
				return
			}
			token, err := deps.Auth.Login(loginReq.Username, loginReq.Password)
			if err != nil {
				if errors.Is(err, entities.ErrInvalidLogin) {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}

	// Protected Admin Routes
	api := r.Group("/api")
	api.Use(deps.Middleware.AuthRequired())
	{
		deps.Admin.RegisterRoutes(api)
	}
}
