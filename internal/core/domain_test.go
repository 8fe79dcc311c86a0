package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2021, 11, 19), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2021-11-19"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Year() != 2021 || d.Month() != time.November || d.Day() != 19 {
		t.Fatalf("unexpected date %v", d)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2021-11-19"` {
		t.Fatalf("got %s", out)
	}
	if err := json.Unmarshal([]byte(`"19/11/2021"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestExpenseCategoryValidate(t *testing.T) {
	user := uuid.New()
	good := NewExpenseCategory(user, " Food ", "#f00")
	if good.Name != "Food" {
		t.Fatalf("name not trimmed: %q", good.Name)
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	goods := []*ExpenseCategory{
		NewExpenseCategory(user, strings.Repeat("x", 100), "#f00"),
		NewExpenseCategory(user, strings.Repeat("ż", 100), "#f00"),
		NewExpenseCategory(user, strings.Repeat("€", 100), "#abcdef"),
	}
	for i, c := range goods {
		if err := c.Validate(); err != nil {
			t.Fatalf("good case %d expected ok, got %v", i, err)
		}
	}

	bads := []*ExpenseCategory{
		NewExpenseCategory(user, "", "#f00"),
		NewExpenseCategory(user, strings.Repeat("x", 101), "#f00"),
		NewExpenseCategory(user, strings.Repeat("ż", 101), "#f00"),
		NewExpenseCategory(user, "Food", ""),
		NewExpenseCategory(user, "Food", "red"),
		NewExpenseCategory(user, "Food", "#ff00"),
	}
	for i, c := range bads {
		err := c.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %T", i, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	user := uuid.New()
	good := NewExpense(user, decimal.NewFromInt(1000), NewDate(2021, 11, 19), nil)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if good.CategoryID() != nil {
		t.Fatalf("expected nil category id")
	}

	bads := []*Expense{
		NewExpense(user, decimal.Zero, NewDate(2021, 11, 19), nil),
		NewExpense(user, decimal.NewFromInt(-5), NewDate(2021, 11, 19), nil),
		NewExpense(user, decimal.NewFromInt(10), Date{}, nil),
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	foreign := NewExpenseCategory(uuid.New(), "Food", "#f00")
	e := NewExpense(user, decimal.NewFromInt(10), NewDate(2021, 11, 19), foreign)
	if err := e.Validate(); !errors.Is(err, ErrExpenseCategoryNotFound) {
		t.Fatalf("expected category not found for foreign category, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Jan@Example.COM ")
	if err != nil || got != "jan@example.com" {
		t.Fatalf("got %q, %v", got, err)
	}
	for _, in := range []string{"", "jan", "@example.com", "jan@", "a@b@c"} {
		if _, err := NormalizeEmail(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestChangeEventRoutingKey(t *testing.T) {
	ev := NewChangeEvent(EntityExpense, ActionCreated, uuid.New(), uuid.New())
	if ev.RoutingKey() != "expense.created" {
		t.Fatalf("got %q", ev.RoutingKey())
	}
	if ev.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}
}
