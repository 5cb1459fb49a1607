package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"blogverse/internal/domain"
)

// ValidationErrors asocia cada campo invalido con el mensaje a mostrar junto al input.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range []string{"name", "email", "password", "title", "content"} {
		if msg, ok := v[f]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Has indica si field tiene error.
func (v ValidationErrors) Has(field string) bool {
	_, ok := v[field]
	return ok
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type registerForm struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type postForm struct {
	Title   string `validate:"required,min=3"`
	Content string `validate:"required,min=10"`
}

var fieldMessages = map[string]map[string]string{
	"Name": {
		"required": "Name is required",
	},
	"Email": {
		"required": "Email is required",
		"email":    "Invalid email address",
	},
	"Password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
	},
	"Title": {
		"required": "Title is required",
		"min":      "Title must be at least 3 characters",
	},
	"Content": {
		"required": "Content is required",
		"min":      "Content must be at least 10 characters",
	},
}

// ValidateCredentials valida el formulario de login. No modifica los valores.
func ValidateCredentials(c domain.Credentials) error {
	return check(loginForm{Email: strings.TrimSpace(c.Email), Password: c.Password})
}

// ValidateRegistration valida el formulario de alta.
func ValidateRegistration(r domain.Registration) error {
	return check(registerForm{
		Name:     strings.TrimSpace(r.Name),
		Email:    strings.TrimSpace(r.Email),
		Password: r.Password,
	})
}

// ValidateDraft aplica los minimos sobre los valores recortados; el borrador se envia sin tocar.
func ValidateDraft(d domain.PostDraft) error {
	return check(postForm{Title: strings.TrimSpace(d.Title), Content: strings.TrimSpace(d.Content)})
}

func check(form any) error {
	err := formValidator().Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strings.ToLower(fe.Field())
		if _, seen := out[key]; seen {
			continue
		}
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out[key] = msg
	}
	return out
}
