package handler

import (
	"context"
	"time"

	"github.com/eshophub/storefront/internal/auth"
	"github.com/eshophub/storefront/pkg/mylogger"
	"github.com/eshophub/storefront/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	client   *auth.Client
	validate *validator.Validate
	logger   *zap.Logger
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"omitempty,min=2"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func NewAuthHandler(client *auth.Client, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	input := new(RegisterInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse body in register", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		mylogger.Warn(ctx, h.logger, "failed to parse input", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	user, err := h.client.SignUp(ctx, input.Email, input.Password, input.DisplayName)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "register failed",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	mylogger.Info(ctx, h.logger, "register user succeeded", zap.String("uid", user.UID))

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	input := new(LoginInput)

	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Email == "" || input.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and Password are required",
		})
	}

	user, err := h.client.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "login failed",
			zap.String("email", input.Email),
			zap.Error(err),
		)
		return errorResponse(c, err)
	}

	var token string
	if session := h.client.CurrentSession(); session != nil {
		token = session.IDToken
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
	defer cancel()

	if err := h.client.SignOut(ctx); err != nil {
		mylogger.Warn(ctx, h.logger, "logout failed", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user := h.client.CurrentUser()
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not signed in"})
	}

	return c.JSON(user)
}
