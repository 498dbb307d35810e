// Package session holds the signed-in user's profile, token and budgets
// behind one injected object backed by a key-value store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"travelapp/internal/core"
	applog "travelapp/internal/log"
	"travelapp/internal/storage"
)

const (
	keyProfile      = "profile"
	keyToken        = "token"
	// keyBudgetPrefix alone holds the budget of expenses not tied to a trip;
	// trip budgets append the trip id.
	keyBudgetPrefix = "budget:"
)

var (
	ErrNoSession = core.NewError(core.ErrAuth, "session", "You need to log in first.", nil)
	ErrExpired   = core.NewError(core.ErrSessionExpired, "session", "Your session has expired. Please log in again.", nil)
)

// ProfileFetcher loads the authoritative profile remotely.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (core.User, error)
}

// Session is safe for concurrent use. Every read-modify-write sequence runs
// under one mutex so a login cannot interleave with a profile edit.
type Session struct {
	mu     sync.Mutex
	store  storage.Store
	logger *applog.Logger
	now    func() time.Time

	loaded  bool
	profile *core.User
	token   string
}

func New(store storage.Store, logger *applog.Logger) *Session {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Session{
		store:  store,
		logger: logger.WithComponent(applog.ComponentSession),
		now:    time.Now,
	}
}

// Load reads the persisted profile and token. Missing keys are not an error.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Session) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	var profile core.User
	switch err := storage.GetJSON(ctx, s.store, keyProfile, &profile); {
	case err == nil:
		s.profile = &profile
	case errors.Is(err, storage.ErrNotFound):
		s.profile = nil
	default:
		return fmt.Errorf("load profile: %w", err)
	}

	token, err := s.store.Get(ctx, keyToken)
	switch {
	case err == nil:
		s.token = string(token)
	case errors.Is(err, storage.ErrNotFound):
		s.token = ""
	default:
		return fmt.Errorf("load token: %w", err)
	}
	s.loaded = true
	return nil
}

// SaveLogin persists a fresh token and profile, replacing any previous session.
func (s *Session) SaveLogin(ctx context.Context, token string, profile core.User) error {
	if strings.TrimSpace(token) == "" {
		return core.Invalid("save login", errors.New("token is empty"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(ctx, keyToken, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if err := storage.SetJSON(ctx, s.store, keyProfile, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.token = token
	s.profile = &profile
	s.loaded = true
	s.logger.InfoContext(ctx, "Session started", applog.FieldUserID, profile.ID)
	return nil
}

// SetProfile writes profile through to the store.
func (s *Session) SetProfile(ctx context.Context, profile core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := storage.SetJSON(ctx, s.store, keyProfile, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.profile = &profile
	return nil
}

// Profile returns the cached profile.
func (s *Session) Profile(ctx context.Context) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return core.User{}, err
	}
	if s.profile == nil {
		return core.User{}, ErrNoSession
	}
	return *s.profile, nil
}

// UserID returns the id of the signed-in user.
func (s *Session) UserID(ctx context.Context) (string, error) {
	p, err := s.Profile(ctx)
	if err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", ErrNoSession
	}
	return p.ID, nil
}

// Token returns the bearer token. It fails with ErrNoSession when nobody is
// logged in and with ErrExpired when the token's exp claim has passed.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return "", err
	}
	if s.token == "" {
		return "", ErrNoSession
	}
	if exp, ok := tokenExpiry(s.token); ok && !s.now().Before(exp) {
		s.logger.InfoContext(ctx, "Session token expired", "expired_at", exp)
		return "", ErrExpired
	}
	return s.token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend stays the authority, this only avoids a doomed round trip.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Clear removes profile, token and cached state. Budgets survive a logout.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range []string{keyToken, keyProfile} {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	s.token = ""
	s.profile = nil
	s.loaded = true
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.logger.InfoContext(ctx, "Session cleared")
	return nil
}

// RefreshProfile fetches the profile remotely and writes it through. A
// session-expiry failure clears the session.
func (s *Session) RefreshProfile(ctx context.Context, fetcher ProfileFetcher) (core.User, error) {
	userID, err := s.UserID(ctx)
	if err != nil {
		return core.User{}, err
	}
	profile, err := fetcher.FetchProfile(ctx, userID)
	if err != nil {
		if core.IsSessionExpired(err) {
			if cerr := s.Clear(ctx); cerr != nil {
				s.logger.WarnContext(ctx, "Failed to clear expired session", applog.FieldError, cerr)
			}
		}
		return core.User{}, err
	}
	if profile.ID == "" {
		profile.ID = userID
	}
	if err := s.SetProfile(ctx, profile); err != nil {
		return core.User{}, err
	}
	return profile, nil
}

func budgetKey(tripID string) string {
	return keyBudgetPrefix + strings.TrimSpace(tripID)
}

// SetBudget stores the budget for a trip key. Zero clears it.
func (s *Session) SetBudget(ctx context.Context, tripID string, budget core.Money) error {
	if err := budget.Validate(); err != nil {
		return core.Invalid("set budget", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := budgetKey(tripID)
	if budget.IsZero() {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("clear budget: %w", err)
		}
		return nil
	}
	if err := s.store.Set(ctx, key, []byte(budget.String())); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

// Budget returns the budget for a trip key; unset budgets are zero.
func (s *Session) Budget(ctx context.Context, tripID string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.store.Get(ctx, budgetKey(tripID))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("load budget: %w", err)
	}
	m, err := core.ParseMoney(string(data))
	if err != nil {
		return core.Money{}, fmt.Errorf("decode budget: %w", err)
	}
	return m, nil
}

// Budgets lists every stored budget keyed by trip id (Unassigned for loose expenses).
func (s *Session) Budgets(ctx context.Context) (map[string]core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.store.Keys(ctx, keyBudgetPrefix)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make(map[string]core.Money, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if err != nil {
			continue
		}
		m, err := core.ParseMoney(string(data))
		if err != nil {
			continue
		}
		out[strings.TrimPrefix(key, keyBudgetPrefix)] = m
	}
	return out, nil
}
