package handlers

import (
	"errors"
	"strings"
	"time"

	config "github.com/anjiri1684/course_ledger/configs"
	"github.com/anjiri1684/course_ledger/database"
	"github.com/anjiri1684/course_ledger/middleware"
	"github.com/anjiri1684/course_ledger/models"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionAffiliateCode = "affiliate_code"

type RegisterRequest struct {
	FullName     string `json:"full_name" validate:"required,min=3"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"omitempty,oneof=student instructor"`
	ReferralCode string `json:"referral_code" validate:"omitempty,max=16"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	ReferredByCode *string   `json:"referred_by_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var errEmailTaken = errors.New("email already exists")

func (h *Handler) RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	code := strings.ToUpper(strings.TrimSpace(req.ReferralCode))
	if code == "" {
		code = h.sessionCode(c)
	}
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}

	var newUser models.User
	err = database.WithTransaction(c.UserContext(), h.DB, func(tx *gorm.DB) error {
		newUser = models.User{
			FullName: req.FullName,
			Email:    strings.ToLower(req.Email),
			Password: string(hashedPassword),
			Role:     role,
			IsActive: true,
		}

		var exists int64
		if err := tx.Model(&models.User{}).Where("email = ?", newUser.Email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			return errEmailTaken
		}

		if code != "" {
			var link models.AffiliateLink
			if err := tx.Select("id").First(&link, "code = ? AND is_active = ?", code, true).Error; err != nil {
				h.Logger.Info().Str("code", code).Msg("ignoring unknown referral code")
			} else {
				newUser.ReferredByCode = &code
			}
		}

		if err := tx.Create(&newUser).Error; err != nil {
			return err
		}
		if role == models.RoleInstructor {
			return tx.Create(&models.Teacher{UserID: newUser.ID, Tier: models.TierIndividual, Status: "approved"}).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errEmailTaken) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:             newUser.ID.String(),
		FullName:       newUser.FullName,
		Email:          newUser.Email,
		Role:           newUser.Role,
		ReferredByCode: newUser.ReferredByCode,
		CreatedAt:      newUser.CreatedAt,
	})
}

func (h *Handler) LoginUser(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parse(c, &req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.WithContext(c.UserContext()).Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	}

	t, err := middleware.IssueToken(h.secret(), user.ID, user.Role, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create token"})
	}
	return c.JSON(fiber.Map{"token": t})
}

func (h *Handler) secret() string {
	if h.Settings == nil {
		return config.Defaults().JWTSecret
	}
	return h.Settings.Current().JWTSecret
}

// sessionCode returns the affiliate code captured by a referral click, if any.
func (h *Handler) sessionCode(c *fiber.Ctx) string {
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return ""
	}
	code, _ := sess.Get(sessionAffiliateCode).(string)
	return code
}
