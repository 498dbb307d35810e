package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"travelapp/internal/core"
)

// FetchExpenses returns the user's expenses. The payload's message field
// must be an array; anything else is a format error.
func (c *Client) FetchExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	const op = "fetch expenses"
	if strings.TrimSpace(userID) == "" {
		return nil, core.Invalid(op, core.ErrEmptyUser)
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/get-expenses",
		body:        map[string]string{"userId": userID},
		bearer:      true,
		failMessage: "Could not load your expenses.",
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.formatError(ctx, op, err)
	}
	if !isJSONArray(envelope.Message) {
		return nil, c.formatError(ctx, op, errors.New("message is not an array"))
	}

	var expenses []core.Expense
	if err := c.decode(ctx, op, envelope.Message, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// AddExpense records e remotely and returns the stored expense. A missing
// token fails before any request is made.
func (c *Client) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	const op = "add expense"
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, core.Invalid(op, err)
	}
	if _, err := c.bearerToken(ctx, op); err != nil {
		return core.Expense{}, err
	}

	body, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/api/add-expenses",
		body:        e,
		bearer:      true,
		failKind:    core.ErrRequest,
		failMessage: "Could not save the expense.",
	})
	if err != nil {
		return core.Expense{}, err
	}
	return c.storedExpense(ctx, op, body, e)
}

// storedExpense reads the created expense from body, keeping the submitted
// fields the backend did not echo.
func (c *Client) storedExpense(ctx context.Context, op string, body []byte, sent core.Expense) (core.Expense, error) {
	raw := unwrap(body, "message", "expense")
	if len(raw) == 0 || raw[0] == '"' {
		return core.Expense{}, c.formatError(ctx, op, errors.New("response carries no expense"))
	}
	var stored core.Expense
	if err := c.decode(ctx, op, raw, &stored); err != nil {
		return core.Expense{}, err
	}
	if stored.ID == "" {
		return core.Expense{}, c.formatError(ctx, op, errors.New("created expense has no id"))
	}
	if stored.Title == "" {
		stored.Title = sent.Title
	}
	if stored.Category == "" {
		stored.Category = sent.Category
	}
	if stored.Date.IsZero() {
		stored.Date = sent.Date
	}
	if stored.Amount.IsZero() {
		stored.Amount = sent.Amount
	}
	if stored.UserID == "" {
		stored.UserID = sent.UserID
	}
	if stored.TripID == "" {
		stored.TripID = sent.TripID
	}
	if stored.PaymentMethod == "" {
		stored.PaymentMethod = sent.PaymentMethod
	}
	return stored, nil
}

// DeleteExpense removes an expense by id.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	const op = "delete expense"
	if strings.TrimSpace(id) == "" {
		return core.Invalid(op, fmt.Errorf("expense id is required"))
	}
	_, err := c.do(ctx, request{
		op:          op,
		method:      http.MethodDelete,
		path:        "/api/expenses/" + pathID(id),
		bearer:      true,
		failKind:    core.ErrDelete,
		failMessage: "Could not delete the expense.",
	})
	return err
}
