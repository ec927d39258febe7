package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func authEngine(t *testing.T) (*client, *AuthHandler) {
	store := newTestStore(t)
	h := NewAuthHandler(zap.NewNop(), store)
	r := newEngine(nil)
	r.GET("/auth/login", h.ShowLogin)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/logout", h.Logout)
	r.POST("/api/register", h.Register)
	return newClient(t, r), h
}

func TestRegisterAPI(t *testing.T) {
	c, _ := authEngine(t)

	w := c.postJSON("/api/register", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, w.Body.String())

	w = c.postJSON("/api/register", `{"name":"Ada","email":"ada@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "User registered successfully")
	assert.NotContains(t, w.Body.String(), "Secret123")

	w = c.postJSON("/api/register", `{"name":"Ada","email":"ADA@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"User with this email already exists"}`, w.Body.String())
}

func TestLogin(t *testing.T) {
	c, h := authEngine(t)
	_, err := h.users.CreateUser(context.Background(), "Demo User", "user@example.com", "password123")
	require.NoError(t, err)

	w := c.postForm("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password.")

	w = c.postForm("/auth/login", url.Values{"email": {"user@example.com"}, "password": {"password123"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = c.postForm("/auth/logout", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestSignup(t *testing.T) {
	c, h := authEngine(t)

	w := c.postForm("/auth/signup", url.Values{
		"name": {""}, "email": {"bad"}, "password": {"short"}, "confirmPassword": {"other"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "field-error")

	w = c.postForm("/auth/signup", url.Values{
		"name": {"Grace"}, "email": {"grace@example.com"}, "password": {"Password1"}, "confirmPassword": {"Password1"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	u, err := h.users.GetUserByEmail(context.Background(), "grace@example.com")
	require.NoError(t, err)
	assert.True(t, u.CheckPassword("Password1"))

	w = c.postForm("/auth/signup", url.Values{
		"name": {"Grace"}, "email": {"grace@example.com"}, "password": {"Password1"}, "confirmPassword": {"Password1"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "User with this email already exists")
}

func TestAPIUsersRequiresUser(t *testing.T) {
	store := newTestStore(t)
	h := NewDashboardHandler(zap.NewNop(), store)

	guest := newEngine(nil)
	guest.GET("/api/users", h.APIUsers)
	w := newClient(t, guest).get("/api/users")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, w.Body.String())

	_, err := store.CreateUser(context.Background(), "Demo User", "user@example.com", "password123")
	require.NoError(t, err)
	admin := newEngine(&models.User{ID: "u1", Name: "Demo User"})
	admin.GET("/api/users", h.APIUsers)
	w = newClient(t, admin).get("/api/users")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.NotContains(t, w.Body.String(), "password")
}
