package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/identity"
)

// Handler exposes auth endpoints for register/login/me.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string          `json:"message"`
	User    identity.Public `json:"user"`
	Token   string          `json:"token"`
}

// Register creates an account and returns it with a token.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body.")
	}
	session, err := h.svc.Register(c.UserContext(), identity.Registration{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return fiber.NewError(http.StatusBadRequest, "User with this email already exists.")
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse{
		Message: "User registered successfully",
		User:    session.User.Public(),
		Token:   session.Token,
	})
}

// Login validates credentials and returns a token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body.")
	}
	session, err := h.svc.Login(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, identity.ErrInvalidCredentials.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{
		Message: "Login successful",
		User:    session.User.Public(),
		Token:   session.Token,
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx, who Identity) error {
	user, err := h.svc.Profile(c.UserContext(), who)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return ErrUnknownUser
		}
		return err
	}
	return c.JSON(fiber.Map{"user": user.Public()})
}
