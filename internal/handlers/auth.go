package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/repository"
	"github.com/Daniel-T-Dada/vector-interview-app/internal/utils"
	"github.com/Daniel-T-Dada/vector-interview-app/views"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	log   *zap.Logger
	users repository.UserRepository
}

func NewAuthHandler(log *zap.Logger, users repository.UserRepository) *AuthHandler {
	return &AuthHandler{log: log, users: users}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	render(c, http.StatusOK, "Sign In", views.Login(csrfToken(c), "", ""))
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	user, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil || !user.CheckPassword(password) {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("Failed to look up user", zap.Error(err))
		}
		render(c, http.StatusUnauthorized, "Sign In", views.Login(csrfToken(c), email, "Invalid email or password."))
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to login")
		return
	}
	h.log.Info("User logged in", zap.String("user", user.ID))
	redirect(c, "/dashboard")
}

func (h *AuthHandler) startSession(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(sessionUserID, userID)
	return session.Save()
}

func (h *AuthHandler) ShowSignup(c *gin.Context) {
	render(c, http.StatusOK, "Create Account", views.Signup(csrfToken(c), views.SignupForm{}, nil, ""))
}

func (h *AuthHandler) Signup(c *gin.Context) {
	form := views.SignupForm{
		Name:  strings.TrimSpace(c.PostForm("name")),
		Email: strings.TrimSpace(c.PostForm("email")),
	}
	password := c.PostForm("password")

	if errs := utils.SignupErrors(form.Name, form.Email, password, c.PostForm("confirmPassword")); len(errs) > 0 {
		render(c, http.StatusBadRequest, "Create Account", views.Signup(csrfToken(c), form, errs, ""))
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), form.Name, form.Email, password)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			render(c, http.StatusConflict, "Create Account",
				views.Signup(csrfToken(c), form, nil, "User with this email already exists"))
			return
		}
		h.log.Error("Error creating user", zap.Error(err))
		render(c, http.StatusInternalServerError, "Create Account",
			views.Signup(csrfToken(c), form, nil, "Something went wrong. Please try again."))
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to login")
		return
	}
	h.log.Info("User registered", zap.String("user", user.ID))
	redirect(c, "/dashboard")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionUserID)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Failed to logout")
		return
	}
	redirect(c, "/auth/login")
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register is the JSON sign-up endpoint.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
			return
		}
		h.log.Error("Error registering user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}
