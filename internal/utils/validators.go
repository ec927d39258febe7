package utils

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/Daniel-T-Dada/vector-interview-app/internal/models"
)

// IsValidEmail reports whether email is a single bare address.
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

// IsComplexPassword requires at least 8 characters with an uppercase
// letter, a lowercase letter and a digit.
func IsComplexPassword(password string) bool {
	var (
		hasMinLen = len(password) >= 8
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	return hasMinLen && hasUpper && hasLower && hasNumber
}

// SignupErrors validates the signup form. Keys are form field names.
func SignupErrors(name, email, password, confirm string) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(name) == "" {
		errs["name"] = "Name is required"
	}
	switch {
	case strings.TrimSpace(email) == "":
		errs["email"] = "Email is required"
	case !IsValidEmail(email):
		errs["email"] = "Please enter a valid email"
	}
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len(password) < 8:
		errs["password"] = "Password must be at least 8 characters"
	case !IsComplexPassword(password):
		errs["password"] = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	}
	if confirm != password {
		errs["confirmPassword"] = "Passwords must match"
	}
	return errs
}

// InterviewErrors validates the create-interview form. Question errors
// are keyed "question-<index>-<field>".
func InterviewErrors(iv *models.Interview, minTimeLimit int) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(iv.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(iv.Description) == "" {
		errs["description"] = "Description is required"
	}
	if len(iv.Questions) == 0 {
		errs["questions"] = "At least one question is required"
	}
	for i, q := range iv.Questions {
		if strings.TrimSpace(q.Text) == "" {
			errs[fmt.Sprintf("question-%d-text", i)] = "Question text is required"
		}
		if q.TimeLimit < minTimeLimit {
			errs[fmt.Sprintf("question-%d-timeLimit", i)] = fmt.Sprintf("Time limit must be at least %d seconds", minTimeLimit)
		}
	}
	return errs
}
