package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelapp/internal/core"
	"travelapp/internal/storage"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type stubFetcher struct {
	user core.User
	err  error
}

func (f stubFetcher) FetchProfile(context.Context, string) (core.User, error) {
	return f.user, f.err
}

var ana = core.User{ID: "u1", FirstName: "Ana", LastName: "Lee", Email: "ana@example.com"}

func TestEmptySession(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, s.Load(ctx))
	_, err := s.Token(ctx)
	assert.ErrorIs(t, err, core.ErrAuth)
	assert.False(t, core.IsSessionExpired(err))

	_, err = s.Profile(ctx)
	assert.ErrorIs(t, err, core.ErrAuth)
}

func TestSaveLoginSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, New(store, nil).SaveLogin(ctx, token, ana))
	require.NoError(t, store.Close())

	store, err = storage.NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	s := New(store, nil)
	require.NoError(t, s.Load(ctx))
	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, got)

	profile, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ana, profile)
}

func TestSaveLoginRejectsEmptyToken(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	err := s.SaveLogin(context.Background(), " ", ana)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestExpiredTokenIsDetected(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, signedToken(t, time.Now().Add(time.Hour)), ana))

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := s.Token(ctx)
	require.Error(t, err)
	assert.True(t, core.IsSessionExpired(err))
}

func TestOpaqueTokenHasNoLocalExpiry(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, "opaque-token", ana))

	got, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", got)
}

func TestClear(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store, nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, "tok", ana))
	require.NoError(t, s.SetBudget(ctx, "3", core.Money{Cents: 50000}))

	require.NoError(t, s.Clear(ctx))
	_, err := s.Token(ctx)
	assert.ErrorIs(t, err, core.ErrAuth)
	_, err = store.Get(ctx, keyProfile)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	budget, err := s.Budget(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), budget.Cents, "budgets are device settings and survive logout")
}

func TestRefreshProfile(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, "tok", ana))

	updated := ana
	updated.ID = ""
	updated.Phone = "555-0100"
	got, err := s.RefreshProfile(ctx, stubFetcher{user: updated})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "555-0100", got.Phone)

	cached, err := s.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "555-0100", cached.Phone)
}

func TestRefreshProfileExpiryClearsSession(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, "tok", ana))

	expired := core.NewError(core.ErrSessionExpired, "fetch profile", "Your session has expired.", errors.New("401"))
	_, err := s.RefreshProfile(ctx, stubFetcher{err: expired})
	require.Error(t, err)
	assert.True(t, core.IsSessionExpired(err))

	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, core.ErrAuth)
}

func TestBudgetsKeyedByTrip(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, s.SetBudget(ctx, "3", core.Money{Cents: 50000}))
	require.NoError(t, s.SetBudget(ctx, core.Unassigned, core.Money{Cents: 1000}))
	require.NoError(t, s.SetBudget(ctx, "4", core.Money{Cents: 700}))

	b, err := s.Budget(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 50000}, b)

	b, err = s.Budget(ctx, "missing")
	require.NoError(t, err)
	assert.True(t, b.IsZero())

	all, err := s.Budgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Money{
		"3":             {Cents: 50000},
		"4":             {Cents: 700},
		core.Unassigned: {Cents: 1000},
	}, all)

	require.NoError(t, s.SetBudget(ctx, "4", core.Money{}))
	all, err = s.Budgets(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "4")

	assert.ErrorIs(t, s.SetBudget(ctx, "3", core.Money{Cents: -1}), core.ErrValidation)
}

func TestUnassignedBudgetDistinctFromTripNamedUnassigned(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()

	require.NoError(t, s.SetBudget(ctx, core.Unassigned, core.Money{Cents: 1000}))
	require.NoError(t, s.SetBudget(ctx, "unassigned", core.Money{Cents: 2500}))

	loose, err := s.Budget(ctx, core.Unassigned)
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 1000}, loose)

	trip, err := s.Budget(ctx, "unassigned")
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 2500}, trip)

	all, err := s.Budgets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentWritesKeepLastProfile(t *testing.T) {
	s := New(storage.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, s.SaveLogin(ctx, "tok", ana))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := ana
			p.Phone = string(rune('a' + i))
			assert.NoError(t, s.SetProfile(ctx, p))
		}(i)
	}
	wg.Wait()

	cached, err := s.Profile(ctx)
	require.NoError(t, err)
	var stored core.User
	require.NoError(t, storage.GetJSON(ctx, s.store, keyProfile, &stored))
	assert.Equal(t, stored, cached, "cache and store agree after concurrent writes")
}
