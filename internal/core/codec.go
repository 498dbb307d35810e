package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of a calendar date.
const DateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD". RFC 3339 timestamps are accepted and
// truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String formats d as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
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

// MarshalJSON encodes m as a two-decimal number, e.g. 15.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	if cents, err := ParseDecimalToCents(raw); err == nil {
		*m = Money{Cents: cents}
		return nil
	}
	// Exponent notation and similar
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", raw)
	}
	parsed, err := MoneyFromFloat(f)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	*m = parsed
	return nil
}

// expenseWire mirrors Expense on the wire. Older payloads name the amount
// "price"; both are read into Amount so add and delete see one quantity.
type expenseWire struct {
	ID            json.RawMessage `json:"id,omitempty"`
	UserID        json.RawMessage `json:"userId,omitempty"`
	TripID        json.RawMessage `json:"tripId,omitempty"`
	Amount        *Money          `json:"amount,omitempty"`
	Price         *Money          `json:"price,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Category      string          `json:"category"`
	Date          Date            `json:"date"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var w expenseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Expense{
		ID:            idString(w.ID),
		UserID:        idString(w.UserID),
		TripID:        idString(w.TripID),
		Title:         w.Title,
		Category:      Category(strings.TrimSpace(w.Category)),
		Date:          w.Date,
		PaymentMethod: w.PaymentMethod,
	}
	if out.Title == "" {
		out.Title = w.Description
	}
	if c, err := ParseCategory(w.Category); err == nil {
		out.Category = c
	}
	switch {
	case w.Amount != nil:
		out.Amount = *w.Amount
	case w.Price != nil:
		out.Amount = *w.Price
	}
	*e = out
	return nil
}

// idString renders a raw JSON id (string, number or null) as a string.
func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return string(raw)
}
