package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"contest-platform/gateways"
	"contest-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentExpiry is how long a checkout order stays payable. INITIATED payments
// older than this are swept to EXPIRED.
const PaymentExpiry = 20 * time.Minute

type PaymentService struct {
	DB             *gorm.DB
	Gateway        gateways.Adapter
	Participations *ParticipationService
}

func NewPaymentService(db *gorm.DB, gateway gateways.Adapter) *PaymentService {
	return &PaymentService{
		DB:             db,
		Gateway:        gateway,
		Participations: NewParticipationService(db),
	}
}

// InitiateResult is what the caller needs to send the payer to checkout.
type InitiateResult struct {
	Payment  *models.Payment         `json:"payment"`
	Checkout *gateways.CheckoutOrder `json:"checkout"`
}

// MinorUnits converts a major-unit amount to the gateway's integer minor
// units. Rounding happens exactly once, here, so 99.99 becomes 9999.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Initiate creates an INITIATED payment for the caller's participation and
// asks the gateway for a checkout destination. A gateway failure leaves the
// payment INITIATED; the caller may retry with a fresh order or keep polling
// this one. No retries happen here.
func (s *PaymentService) Initiate(ctx context.Context, userID, contestID string) (*InitiateResult, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	var contest models.Contest
	if err := s.DB.First(&contest, "id = ?", contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contest %s", ErrNotFound, contestID)
		}
		return nil, err
	}
	if contest.EntryFee == 0 {
		return nil, fmt.Errorf("%w: use the register endpoint", ErrFreeContest)
	}

	participation, err := s.Participations.Register(userID, contestID)
	if err != nil {
		return nil, err
	}
	if participation.IsPaid {
		return nil, ErrAlreadyPaid
	}

	merchantOrderID := fmt.Sprintf("IDT_%s_%d", strings.Split(uuid.NewString(), "-")[0], time.Now().UnixMilli())
	payment := &models.Payment{
		ID:              uuid.NewString(),
		UserID:          userID,
		ContestID:       contestID,
		ParticipationID: participation.ID,
		MerchantOrderID: merchantOrderID,
		Gateway:         s.Gateway.Name(),
		Amount:          contest.EntryFee,
		Status:          models.PaymentInitiated,
		ExpiresAt:       time.Now().Add(PaymentExpiry),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Participation{}).
			Where("id = ?", participation.ID).
			UpdateColumn("payment_id", payment.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	redirectBase := os.Getenv("PAYMENT_REDIRECT_BASE_URL")
	callbackBase := os.Getenv("BACKEND_URL")
	checkout, err := s.Gateway.CreateOrder(ctx, gateways.OrderRequest{
		MerchantOrderID: merchantOrderID,
		AmountMinor:     MinorUnits(contest.EntryFee),
		Mobile:          user.MobileNumber,
		RedirectURL:     fmt.Sprintf("%s/status?merchantOrderId=%s&contestId=%s", redirectBase, merchantOrderID, contestID),
		CallbackURL:     callbackBase + "/api/payment/callback",
	})
	if err != nil {
		log.Printf("ERROR creating gateway order %s: %v", merchantOrderID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return &InitiateResult{Payment: payment, Checkout: checkout}, nil
}

// PollStatus drives a payment toward a terminal state. Terminal payments are
// returned from the store without touching the gateway; only the first writer
// of a terminal state performs the reconcile side effects.
func (s *PaymentService) PollStatus(ctx context.Context, merchantOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.DB.First(&payment, "merchant_order_id = ?", merchantOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", ErrNotFound, merchantOrderID)
		}
		return nil, err
	}
	if payment.Terminal() {
		return &payment, nil
	}

	if time.Now().After(payment.ExpiresAt) {
		if err := s.markExpired(&payment); err != nil {
			return nil, err
		}
		return &payment, nil
	}

	status, err := s.Gateway.CheckStatus(ctx, merchantOrderID)
	if err != nil {
		log.Printf("ERROR checking gateway status for %s: %v", merchantOrderID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch status.State {
	case gateways.StateCompleted:
		if err := s.settleSuccess(&payment, status.TransactionID); err != nil {
			return nil, err
		}
	case gateways.StateFailed:
		if err := s.markFailed(&payment); err != nil {
			return nil, err
		}
	}
	// PENDING: stays INITIATED, caller polls again later.
	return &payment, nil
}

// WebhookEvent is the normalized asynchronous notification from a gateway.
type WebhookEvent struct {
	MerchantOrderID string `json:"merchantOrderId"`
	State           string `json:"state"`
	TransactionID   string `json:"transactionId"`
}

// HandleWebhook applies a push notification whose authenticity the caller has
// already established (the Razorpay flow verifies the checkout signature
// first). Unauthenticated callbacks must never reach this directly; they go
// through HandleCallback, which confirms the state with the gateway. It is
// idempotent against the polling path: the conditional terminal write means
// whoever got there first wins and later deliveries are no-ops.
func (s *PaymentService) HandleWebhook(event WebhookEvent) error {
	if event.MerchantOrderID == "" {
		return fmt.Errorf("%w: merchantOrderId required", ErrValidation)
	}

	var payment models.Payment
	if err := s.DB.First(&payment, "merchant_order_id = ?", event.MerchantOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %s", ErrNotFound, event.MerchantOrderID)
		}
		return err
	}
	if payment.Terminal() {
		return nil
	}

	switch strings.ToUpper(event.State) {
	case gateways.StateCompleted:
		return s.settleSuccess(&payment, event.TransactionID)
	case gateways.StateFailed:
		return s.markFailed(&payment)
	default:
		return nil
	}
}

// settleSuccess flips the payment to SUCCESS and reconciles the participation
// and contest counter, all in one transaction. The status guard makes the
// whole unit at-most-once under webhook-vs-poll races.
func (s *PaymentService) settleSuccess(payment *models.Payment, transactionID string) error {
	now := time.Now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentInitiated).
			Updates(map[string]interface{}{
				"status":         models.PaymentSuccess,
				"transaction_id": transactionID,
				"paid_at":        now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another writer already finalized this payment.
			return tx.First(payment, "id = ?", payment.ID).Error
		}

		if _, err := s.Participations.ReconcilePayment(tx, payment.ParticipationID, payment.ID, now); err != nil {
			return err
		}

		payment.Status = models.PaymentSuccess
		payment.TransactionID = transactionID
		payment.PaidAt = &now
		return nil
	})
}

func (s *PaymentService) markFailed(payment *models.Payment) error {
	result := s.DB.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentInitiated).
		UpdateColumn("status", models.PaymentFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.DB.First(payment, "id = ?", payment.ID).Error
	}
	payment.Status = models.PaymentFailed
	return nil
}

func (s *PaymentService) markExpired(payment *models.Payment) error {
	result := s.DB.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentInitiated).
		UpdateColumn("status", models.PaymentExpired)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.DB.First(payment, "id = ?", payment.ID).Error
	}
	payment.Status = models.PaymentExpired
	return nil
}

// ExpireStale sweeps INITIATED payments past their expiry to EXPIRED. Used by
// the scheduler; safe to race with polls because every transition out of
// INITIATED is conditional.
func (s *PaymentService) ExpireStale(now time.Time) (int64, error) {
	result := s.DB.Model(&models.Payment{}).
		Where("status = ? AND expires_at < ?", models.PaymentInitiated, now).
		UpdateColumn("status", models.PaymentExpired)
	return result.RowsAffected, result.Error
}

// StaleInitiated lists INITIATED payments older than the given age, for the
// reconcile worker to poll against the gateway.
func (s *PaymentService) StaleInitiated(olderThan time.Duration) ([]models.Payment, error) {
	var payments []models.Payment
	cutoff := time.Now().Add(-olderThan)
	err := s.DB.Where("status = ? AND created_at < ?", models.PaymentInitiated, cutoff).
		Find(&payments).Error
	return payments, err
}

// InitiatePayment handles POST /payment/initiate.
func (s *PaymentService) InitiatePayment(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return respondError(c, err)
	}

	type Req struct {
		ContestID string `json:"contest_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.ContestID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "contest_id required"})
	}

	result, err := s.Initiate(c.Context(), user.ID, req.ContestID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":         true,
		"merchantOrderId": result.Payment.MerchantOrderID,
		"paymentId":       result.Payment.ID,
		"checkout":        result.Checkout,
	})
}

// GetPaymentStatus handles GET /payment/status?merchantOrderId=...
func (s *PaymentService) GetPaymentStatus(c *fiber.Ctx) error {
	merchantOrderID := c.Query("merchantOrderId")
	if merchantOrderID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "merchantOrderId required"})
	}

	payment, err := s.PollStatus(c.Context(), merchantOrderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"status":    payment.Status,
		"contestId": payment.ContestID,
	})
}

// HandleCallback handles POST /payment/callback, the server-to-server
// notification path. The payload arrives unauthenticated, so the state it
// claims is never applied; the notification only prompts a status check
// against the gateway, and the confirmed state settles through the usual
// conditional writes.
func (s *PaymentService) HandleCallback(c *fiber.Ctx) error {
	var event WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid callback payload"})
	}
	if event.MerchantOrderID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "merchantOrderId required"})
	}
	if _, err := s.PollStatus(c.Context(), event.MerchantOrderID); err != nil {
		log.Printf("ERROR handling payment callback for %s: %v", event.MerchantOrderID, err)
		return respondError(c, err)
	}
	return c.SendString("OK")
}

// VerifyRazorpayPayment handles POST /payment/verify for the client-SDK flow:
// the app posts back the ids and signature Razorpay's checkout produced.
func (s *PaymentService) VerifyRazorpayPayment(c *fiber.Ctx) error {
	rzp, ok := s.Gateway.(*gateways.RazorpayGateway)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "razorpay is not the configured gateway"})
	}

	type Req struct {
		MerchantOrderID   string `json:"merchantOrderId"`
		RazorpayOrderID   string `json:"razorpay_order_id"`
		RazorpayPaymentID string `json:"razorpay_payment_id"`
		RazorpaySignature string `json:"razorpay_signature"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.MerchantOrderID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "invalid verification payload"})
	}

	if !rzp.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return c.Status(400).JSON(fiber.Map{"error": "signature verification failed"})
	}

	if err := s.HandleWebhook(WebhookEvent{
		MerchantOrderID: req.MerchantOrderID,
		State:           gateways.StateCompleted,
		TransactionID:   req.RazorpayPaymentID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
