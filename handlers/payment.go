// handlers/payment.go
package handlers

import (
	"contest-platform/middleware"
	"contest-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, auth *services.AuthService, paymentService *services.PaymentService) {
	jwtAuth := middleware.JWTAuthMiddleware(auth)

	// Gateway-facing routes, no user token on these
	app.Post("/payment/callback", paymentService.HandleCallback)
	app.Get("/payment/status", paymentService.GetPaymentStatus)

	app.Post("/payment/initiate", jwtAuth, paymentService.InitiatePayment)
	app.Post("/payment/verify", jwtAuth, paymentService.VerifyRazorpayPayment)
}
