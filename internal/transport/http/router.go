package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lenlo121500/auth-system/internal/token"
	"github.com/lenlo121500/auth-system/internal/transport/http/handler"
	"github.com/lenlo121500/auth-system/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

// NewRouter wires the /api/auth surface. Rate limits run before any
// lifecycle logic; the session middleware only guards check-auth.
func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, tokens *token.Issuer, clientURL string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{clientURL},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit("global", middleware.GlobalRate))

	auth := r.Group("/api/auth")
	auth.POST("/signup", middleware.RateLimit("signup", middleware.SignupRate), authHandler.Signup)
	auth.POST("/verify-email", middleware.RateLimit("verify_email", middleware.VerifyRate), authHandler.VerifyEmail)
	auth.POST("/login", middleware.RateLimit("login", middleware.LoginRate), authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", middleware.RateLimit("forgot_password", middleware.ForgotPasswordRate), authHandler.ForgotPassword)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)
	auth.GET("/check-auth", middleware.Auth(tokens), authHandler.CheckAuth)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return r
}
