package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Shopping   Category = "Shopping"
	Lodging    Category = "Lodging"
	Food       Category = "Food"
	Transport  Category = "Transport"
	Activities Category = "Activities"
	Health     Category = "Health"
	Souvenirs  Category = "Souvenirs"
	Others     Category = "Others"
)

// Unassigned is the trip id of expenses that are not tied to a trip.
const Unassigned = ""

// DefaultPaymentMethod is used when an expense is recorded without one.
const DefaultPaymentMethod = "Cash"

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID          string `json:"id"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		Phone       string `json:"phone,omitempty"`
		Gender      string `json:"gender,omitempty"`
		DateOfBirth Date   `json:"dob,omitempty"`
	}

	Expense struct {
		ID            string   `json:"id,omitempty"`
		UserID        string   `json:"userId,omitempty"`
		TripID        string   `json:"tripId,omitempty"` // Unassigned when empty
		Amount        Money    `json:"amount"`
		Title         string   `json:"title"`
		Category      Category `json:"category"`
		Date          Date     `json:"date"`
		PaymentMethod string   `json:"paymentMethod,omitempty"`
	}
)

var categories = []Category{Shopping, Lodging, Food, Transport, Activities, Health, Souvenirs, Others}

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyUser       = errors.New("empty user id")
)

// Categories returns the fixed expense categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches s against the fixed category set, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// Valid reports whether c belongs to the fixed set.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Rank is the position of c in display order, or len(Categories()) if unknown.
func (c Category) Rank() int {
	for i, known := range categories {
		if c == known {
			return i
		}
	}
	return len(categories)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar day in local time.
func Today() Date {
	return DateOf(time.Now())
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsZero reports whether m is exactly zero. A zero budget means "unset".
func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// TripKey returns e's trip id, which is Unassigned for loose expenses.
func (e Expense) TripKey() string {
	return strings.TrimSpace(e.TripID)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Normalize trims free-text fields and fills the default payment method.
func (e Expense) Normalize() Expense {
	e.Title = strings.TrimSpace(e.Title)
	e.TripID = strings.TrimSpace(e.TripID)
	e.PaymentMethod = strings.TrimSpace(e.PaymentMethod)
	if e.PaymentMethod == "" {
		e.PaymentMethod = DefaultPaymentMethod
	}
	return e
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
