package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/repository"
	"github.com/Lina3386/monk-finance/internal/services"
)

const userIDLocal = "user_id"

// errorHandler renders every error as {"error": message}.
func errorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case services.IsValidationError(err):
			code = fiber.StatusBadRequest
			message = err.Error()
		case errors.Is(err, repository.ErrNotFound):
			code = fiber.StatusNotFound
			message = "not found"
		default:
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}

func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

// rateLimit allows perMinute requests per user, falling back to the client IP.
func rateLimit(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if uid, ok := c.Locals(userIDLocal).(int64); ok {
				return "user:" + strconv.FormatInt(uid, 10)
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}

// userLookup loads a user by id, repository.ErrNotFound when it does not exist.
type userLookup func(ctx context.Context, userID int64) (*models.User, error)

// jwtAuth accepts HS256 bearer tokens whose subject is the id of an existing user.
func jwtAuth(secret []byte, users userLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || userID <= 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		if _, err := users(c.UserContext(), userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
			}
			return err
		}

		c.Locals(userIDLocal, userID)
		return c.Next()
	}
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret []byte, userID int64, ttl time.Duration) (string, error) {
	return signToken(secret, userID, time.Now(), ttl)
}

func signToken(secret []byte, userID int64, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(secret)
}

// TokenIssuer hands out tokens with a fixed lifetime.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) IssueToken(userID int64) (string, time.Time, error) {
	now := i.now()
	token, err := signToken(i.secret, userID, now, i.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(i.ttl), nil
}

func currentUser(c *fiber.Ctx) (int64, error) {
	userID, ok := c.Locals(userIDLocal).(int64)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "missing user")
	}
	return userID, nil
}
