package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	authsvc "savanna-backend/internal/application/auth"
	"savanna-backend/internal/middleware"
	"savanna-backend/internal/pkg/response"
)

type Handlers struct {
	Finder     authsvc.OperatorFinder
	Rdb        *redis.Client
	SessionCfg middleware.SessionConfig
}

func NewHandlers(finder authsvc.OperatorFinder, rdb *redis.Client, cfg middleware.SessionConfig) *Handlers {
	return &Handlers{Finder: finder, Rdb: rdb, SessionCfg: cfg}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, authsvc.ErrInvalidEmail),
		errors.Is(err, authsvc.ErrIncorrectPassword),
		errors.Is(err, authsvc.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// Login authenticates an operator and starts a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var input authsvc.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, err.Error())
	}

	op, err := h.Finder.FindByEmailAndPassword(input.Email, input.Password)
	if err != nil {
		return response.Error(c, "Login failed", statusFor(err), err.Error())
	}

	sessionOp := middleware.SessionOperator{
		OperatorID: op.OperatorID.String(),
		Fullname:   op.Fullname,
		Email:      op.Email,
	}
	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionOperator(c, sessionOp)

	cookie := middleware.SessionCookieConfig(h.SessionCfg)
	cookie.Value = "s:" + sid
	cookie.Expires = time.Now().Add(24 * time.Hour)
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", sessionOp, nil)
}

// Me returns the operator stored in the current session.
func (h *Handlers) Me(c *fiber.Ctx) error {
	op, err := authsvc.VerifyOperator(middleware.GetOperator(c))
	if err != nil {
		return response.Error(c, "Not authenticated", statusFor(err), err.Error())
	}
	return response.Success(c, "Operator fetched successfully", op, nil)
}

// Logout destroys the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.SessionCfg)
	cookie.Expires = time.Now().Add(-time.Hour)
	c.Cookie(&cookie)

	return response.Success(c, "Logout successful", nil, nil)
}
