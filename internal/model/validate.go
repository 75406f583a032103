package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type subjectRules struct {
	ID    string `validate:"required"`
	Name  string `validate:"required"`
	Color string `validate:"required,hexcolor"`
}

type sessionRules struct {
	SubjectID string `validate:"required"`
	StartTime int64  `validate:"gt=0"`
	EndTime   int64  `validate:"gtefield=StartTime"`
	Duration  int64  `validate:"min=1"`
	Date      int64  `validate:"gt=0"`
}

type credentialRules struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

// ValidationError lists the fields that failed and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "invalid " + strings.Join(parts, ", ")
}

// NormalizeSubject trims the user-entered fields in place.
func NormalizeSubject(s *Subject) {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Color = strings.TrimSpace(s.Color)
}

func ValidateSubject(s Subject) error {
	return check(subjectRules{
		ID:    strings.TrimSpace(s.ID),
		Name:  strings.TrimSpace(s.Name),
		Color: strings.TrimSpace(s.Color),
	})
}

// NormalizeEmail trims and lower-cases an account email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCredentials checks a registration request; email must already be
// normalized.
func ValidateCredentials(email, password string) error {
	return check(credentialRules{Email: email, Password: password})
}

func ValidateSession(s StudySession) error {
	return check(sessionRules{
		SubjectID: s.SubjectID,
		StartTime: int64(s.StartTime),
		EndTime:   int64(s.EndTime),
		Duration:  s.Duration,
		Date:      int64(s.Date),
	})
}

func ValidateGoal(g Goal) error {
	if g == nil {
		return &ValidationError{Fields: map[string]string{"goal": "required"}}
	}
	if err := validate.Var(g.Target(), "gt=0"); err != nil {
		return &ValidationError{Fields: map[string]string{"target": "must be positive"}}
	}
	return nil
}

func check(rules interface{}) error {
	err := validate.Struct(rules)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields[lowerFirst(fe.Field())] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "hexcolor":
		return "must be a hex colour"
	case "email":
		return "must be an email address"
	case "gtefield":
		return "must not precede " + lowerFirst(fe.Param())
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return fe.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
