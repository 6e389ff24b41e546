package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the contest lifecycle. Handlers translate these to HTTP
// responses; everything else surfaces as a 500.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("already exists")
	ErrInvalidContestSpec   = errors.New("invalid contest spec")
	ErrPaymentRequired      = errors.New("payment not completed")
	ErrAlreadyPaid          = errors.New("already paid")
	ErrFreeContest          = errors.New("contest has no entry fee")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrEntryContestMismatch = errors.New("entry does not belong to contest")
	ErrDuplicateVote        = errors.New("user has already voted in this contest")
	ErrAlreadyPublished     = errors.New("winners already announced")
	ErrTooEarly             = errors.New("too early to announce results")
	ErrNoEntries            = errors.New("no entries to pick winners from")
)

// respondError maps a service error to its HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidContestSpec),
		errors.Is(err, ErrEntryContestMismatch), errors.Is(err, ErrFreeContest),
		errors.Is(err, ErrTooEarly), errors.Is(err, ErrNoEntries),
		errors.Is(err, ErrAlreadyPublished):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateVote):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrPaymentRequired):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrAlreadyPaid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrGatewayUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
}
