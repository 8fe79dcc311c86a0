package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	User struct {
		ID           uuid.UUID
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	ExpenseCategory struct {
		ID     uuid.UUID
		UserID uuid.UUID
		Name   string
		Color  string
	}

	Expense struct {
		ID           uuid.UUID
		UserID       uuid.UUID
		Amount       decimal.Decimal
		RealisedDate Date
		Category     *ExpenseCategory // nil when the expense is uncategorised
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyName     = errors.New("empty category name")
	ErrInvalidColor  = errors.New("invalid color")
	ErrInvalidEmail  = errors.New("invalid email")
)

const maxCategoryName = 100

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewExpenseCategory creates a category with a fresh identifier.
func NewExpenseCategory(userID uuid.UUID, name, color string) *ExpenseCategory {
	return &ExpenseCategory{
		ID:     uuid.New(),
		UserID: userID,
		Name:   strings.TrimSpace(name),
		Color:  strings.TrimSpace(color),
	}
}

func (c ExpenseCategory) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if utf8.RuneCountInString(name) > maxCategoryName {
		return NewValidationError("name", fmt.Errorf("name too long (max %d characters)", maxCategoryName))
	}
	if !colorPattern.MatchString(c.Color) {
		return NewValidationError("color", ErrInvalidColor)
	}
	return nil
}

// NewExpense creates an expense with a fresh identifier.
func NewExpense(userID uuid.UUID, amount decimal.Decimal, date Date, category *ExpenseCategory) *Expense {
	return &Expense{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       amount,
		RealisedDate: date,
		Category:     category,
	}
}

// CategoryID returns the id of the attached category, if any.
func (e Expense) CategoryID() *uuid.UUID {
	if e.Category == nil {
		return nil
	}
	id := e.Category.ID
	return &id
}

func (e Expense) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return NewValidationError("amount", err)
	}
	if err := e.RealisedDate.Validate(); err != nil {
		return NewValidationError("realised_date", err)
	}
	if e.Category != nil && e.Category.UserID != e.UserID {
		return ErrExpenseCategoryNotFound
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address and checks its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", ErrInvalidEmail
	}
	return email, nil
}
