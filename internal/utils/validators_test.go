package utils

import (
	"testing"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@example.com"))
	assert.False(t, IsValidEmail("user@localhost"))
	assert.False(t, IsValidEmail("Demo <user@example.com>"))
	assert.False(t, IsValidEmail("not-an-email"))
}

func TestIsComplexPassword(t *testing.T) {
	assert.True(t, IsComplexPassword("Password123"))
	assert.False(t, IsComplexPassword("password123"))
	assert.False(t, IsComplexPassword("PASSWORD123"))
	assert.False(t, IsComplexPassword("Pass1"))
}

func TestSignupErrors(t *testing.T) {
	assert.Empty(t, SignupErrors("Ada", "ada@example.com", "Password123", "Password123"))

	errs := SignupErrors("", "bad", "short", "other")
	assert.Equal(t, "Name is required", errs["name"])
	assert.Equal(t, "Please enter a valid email", errs["email"])
	assert.Equal(t, "Password must be at least 8 characters", errs["password"])
	assert.Equal(t, "Passwords must match", errs["confirmPassword"])
}

func TestInterviewErrors(t *testing.T) {
	iv := &models.Interview{
		Title:       "Backend",
		Description: "APIs",
		Questions: []models.Question{
			{Text: "Fine", TimeLimit: 120},
			{Text: " ", TimeLimit: 10},
		},
	}
	errs := InterviewErrors(iv, 30)
	assert.Len(t, errs, 2)
	assert.Equal(t, "Question text is required", errs["question-1-text"])
	assert.Equal(t, "Time limit must be at least 30 seconds", errs["question-1-timeLimit"])

	errs = InterviewErrors(&models.Interview{}, 30)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "questions")
}
