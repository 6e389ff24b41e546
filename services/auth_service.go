package services

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"contest-platform/models"
	"contest-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	DB        *gorm.DB
	OTP       *utils.OTPStore
	SMS       *utils.SMSClient
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, otp *utils.OTPStore, sms *utils.SMSClient, jwtSecret string) *AuthService {
	return &AuthService{DB: db, OTP: otp, SMS: sms, jwtSecret: []byte(jwtSecret)}
}

// pendingSignup is the signup form held in the ephemeral store until the OTP
// is verified.
type pendingSignup struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile_number"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Password string `json:"password"`
}

// GenerateToken issues a signed JWT whose subject is the user's external auth
// id.
func (s *AuthService) GenerateToken(externalAuthID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": externalAuthID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a JWT and returns the external auth subject id.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return "", errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}
	return sub, nil
}

func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand should not fail; fall back to a fixed dev code.
		return "1204"
	}
	return fmt.Sprintf("%04d", n.Int64())
}

// SignupInitiate handles POST /auth/signup. The form is held in redis with a
// 5-minute expiry until the OTP comes back.
func (s *AuthService) SignupInitiate(c *fiber.Ctx) error {
	var req pendingSignup
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" || req.Email == "" || req.Mobile == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, email, mobile_number and password are required"})
	}

	var existing models.User
	err := s.DB.Where("email = ? OR mobile_number = ?", req.Email, req.Mobile).First(&existing).Error
	if err == nil {
		return c.Status(400).JSON(fiber.Map{"error": "email or mobile already exists"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, err)
	}

	ctx := c.Context()
	code := generateOTP()
	if err := s.OTP.SaveCode(ctx, req.Mobile, code); err != nil {
		log.Printf("ERROR saving OTP for %s: %v", req.Mobile, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue OTP"})
	}

	blob, _ := json.Marshal(req)
	if err := s.OTP.SavePendingSignup(ctx, req.Mobile, string(blob)); err != nil {
		log.Printf("ERROR saving pending signup for %s: %v", req.Mobile, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to stage signup"})
	}

	if err := s.SMS.SendOTP(ctx, req.Mobile, code); err != nil {
		log.Printf("WARN OTP delivery failed for %s: %v", req.Mobile, err)
	}
	return c.JSON(fiber.Map{"message": "OTP sent for verification"})
}

// VerifyOTP handles POST /auth/verify-otp and completes signup.
func (s *AuthService) VerifyOTP(c *fiber.Ctx) error {
	type Req struct {
		MobileNumber string `json:"mobile_number"`
		OTP          string `json:"otp"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	ctx := c.Context()
	ok, err := s.OTP.VerifyCode(ctx, req.MobileNumber, req.OTP)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid or expired OTP"})
	}

	blob, err := s.OTP.GetPendingSignup(ctx, req.MobileNumber)
	if err != nil || blob == "" {
		return c.Status(400).JSON(fiber.Map{"error": "no signup request found for this number"})
	}
	var pending pendingSignup
	if err := json.Unmarshal([]byte(blob), &pending); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "corrupt signup state"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pending.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	user := models.User{
		ID:             uuid.NewString(),
		Name:           pending.Name,
		Email:          pending.Email,
		MobileNumber:   pending.Mobile,
		Age:            pending.Age,
		Gender:         pending.Gender,
		ExternalAuthID: uuid.NewString(),
		PasswordHash:   string(hash),
	}
	if err := s.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(409).JSON(fiber.Map{"error": "email or mobile already exists"})
		}
		return respondError(c, err)
	}

	if err := s.OTP.DeletePendingSignup(ctx, req.MobileNumber); err != nil {
		log.Printf("WARN failed to clear pending signup for %s: %v", req.MobileNumber, err)
	}

	token, err := s.GenerateToken(user.ExternalAuthID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Registration successful", "user": user, "token": token})
}

// LoginWithEmail handles POST /auth/login.
func (s *AuthService) LoginWithEmail(c *fiber.Ctx) error {
	type Req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var user models.User
	if err := s.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, err := s.GenerateToken(user.ExternalAuthID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Login successful", "user": user, "token": token})
}

// MobileLogin handles POST /auth/mobile-login (OTP step 1).
func (s *AuthService) MobileLogin(c *fiber.Ctx) error {
	type Req struct {
		MobileNumber string `json:"mobile_number"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil || req.MobileNumber == "" {
		return c.Status(400).JSON(fiber.Map{"error": "mobile_number required"})
	}

	var user models.User
	if err := s.DB.Where("mobile_number = ?", req.MobileNumber).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	ctx := c.Context()
	code := generateOTP()
	if err := s.OTP.SaveCode(ctx, req.MobileNumber, code); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue OTP"})
	}
	if err := s.SMS.SendOTP(ctx, req.MobileNumber, code); err != nil {
		log.Printf("WARN OTP delivery failed for %s: %v", req.MobileNumber, err)
	}
	return c.JSON(fiber.Map{"message": "OTP sent to registered number"})
}

// VerifyMobileLogin handles POST /auth/mobile-login/verify (OTP step 2).
func (s *AuthService) VerifyMobileLogin(c *fiber.Ctx) error {
	type Req struct {
		MobileNumber string `json:"mobile_number"`
		OTP          string `json:"otp"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	ok, err := s.OTP.VerifyCode(c.Context(), req.MobileNumber, req.OTP)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "invalid or expired OTP"})
	}

	var user models.User
	if err := s.DB.Where("mobile_number = ?", req.MobileNumber).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	token, err := s.GenerateToken(user.ExternalAuthID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Login successful", "user": user, "token": token})
}
