package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/course_ledger/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenTTL = 72 * time.Hour

var errInvalidClaims = errors.New("invalid token claims")

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// IssueToken signs the claims Protected and the role guards read.
func IssueToken(secret string, userID uuid.UUID, role string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a raw token outside the fiber chain, e.g. on a websocket.
func ParseToken(secret, raw string) (uuid.UUID, string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", errInvalidClaims
	}
	return claimsIdentity(claims)
}

// CurrentUser reads the identity Protected stored on the request.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, "", errInvalidClaims
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", errInvalidClaims
	}
	return claimsIdentity(claims)
}

func claimsIdentity(claims jwt.MapClaims) (uuid.UUID, string, error) {
	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", errInvalidClaims
	}
	role, _ := claims["role"].(string)
	return id, role, nil
}

func requireRole(label string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, role, err := CurrentUser(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fmt.Sprintf("Forbidden: %s access required", label),
		})
	}
}

func AdminRequired() fiber.Handler {
	return requireRole("Admin", models.RoleAdmin)
}

func InstructorRequired() fiber.Handler {
	return requireRole("Instructor", models.RoleInstructor)
}

// StaffRequired admits staff and admins; it guards the internal settlement hooks.
func StaffRequired() fiber.Handler {
	return requireRole("Staff", models.RoleStaff, models.RoleAdmin)
}
