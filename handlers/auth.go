// handlers/auth.go
package handlers

import (
	"contest-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	auth := app.Group("/auth")

	auth.Post("/signup", authService.SignupInitiate)
	auth.Post("/verify-otp", authService.VerifyOTP)
	auth.Post("/login", authService.LoginWithEmail)
	auth.Post("/mobile-login", authService.MobileLogin)
	auth.Post("/mobile-login/verify", authService.VerifyMobileLogin)
}
