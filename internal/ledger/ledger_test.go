package ledger

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelapp/internal/core"
)

func expense(id string, cents int64, cat core.Category) core.Expense {
	return core.Expense{
		ID:       id,
		Amount:   core.Money{Cents: cents},
		Title:    "item " + id,
		Category: cat,
		Date:     core.NewDate(2024, 9, 13),
	}
}

func TestBudgetScenario(t *testing.T) {
	l := New()
	l = l.Add(expense("1", 1500, core.Food))
	l = l.Add(expense("2", 2500, core.Transport))

	assert.Equal(t, "40.00", l.Total().String())

	p := ComputeBudgetProgress(l.Total(), core.Money{Cents: 50000})
	assert.True(t, p.Set)
	assert.InDelta(t, 0.08, p.Ratio, 1e-9)
	assert.False(t, p.Over())
	assert.Equal(t, core.Money{Cents: 46000}, p.Remaining())
	assert.Equal(t, 8, p.Percent())
}

func TestComputeBudgetProgress(t *testing.T) {
	tests := []struct {
		name   string
		total  int64
		budget int64
		set    bool
		over   bool
		ratio  float64
	}{
		{"zero budget is unset", 4000, 0, false, false, 0},
		{"nothing spent", 0, 10000, true, false, 0},
		{"exactly on budget", 10000, 10000, true, true, 1},
		{"over budget", 15000, 10000, true, true, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ComputeBudgetProgress(core.Money{Cents: tt.total}, core.Money{Cents: tt.budget})
			assert.Equal(t, tt.set, p.Set)
			assert.Equal(t, tt.over, p.Over())
			assert.InDelta(t, tt.ratio, p.Ratio, 1e-9)
		})
	}
}

func TestRemainingGoesNegative(t *testing.T) {
	p := ComputeBudgetProgress(core.Money{Cents: 12000}, core.Money{Cents: 10000})
	assert.Equal(t, core.Money{Cents: -2000}, p.Remaining())
}

func TestDelete(t *testing.T) {
	l := New(expense("1", 1500, core.Food), expense("2", 2500, core.Food))

	after, ok := l.Delete("1")
	require.True(t, ok)
	assert.Equal(t, int64(2500), after.Total().Cents)
	assert.Equal(t, 1, after.Len())
	assert.Equal(t, 2, l.Len(), "original ledger is unchanged")
	assert.Equal(t, int64(4000), l.Total().Cents)

	same, ok := after.Delete("missing")
	assert.False(t, ok)
	assert.Equal(t, after.Total(), same.Total())
	assert.Equal(t, after.Len(), same.Len())
}

func TestAddDoesNotAliasSharedBacking(t *testing.T) {
	base := New(expense("1", 100, core.Food))
	a := base.Add(expense("a", 200, core.Food))
	b := base.Add(expense("b", 300, core.Food))

	_, okA := a.Find("a")
	_, okB := b.Find("b")
	_, crossed := a.Find("b")
	assert.True(t, okA)
	assert.True(t, okB)
	assert.False(t, crossed)
}

func TestAddSameIDReplaces(t *testing.T) {
	l := New().Add(expense("e1", 1500, core.Food)).Add(expense("e1", 1500, core.Food))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, int64(1500), l.Total().Cents)

	l = l.Add(expense("e1", 2000, core.Food))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, int64(2000), l.Total().Cents)

	l, ok := l.Delete("e1")
	require.True(t, ok)
	assert.Zero(t, l.Len())
	assert.True(t, l.Total().IsZero())
}

func TestTotalMatchesSumAfterRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := New()
	var ids []string
	for i := 0; i < 500; i++ {
		if len(ids) > 0 && rng.Intn(3) == 0 {
			j := rng.Intn(len(ids))
			var ok bool
			l, ok = l.Delete(ids[j])
			require.True(t, ok)
			ids = append(ids[:j], ids[j+1:]...)
			continue
		}
		id := strconv.Itoa(i)
		l = l.Add(expense(id, int64(rng.Intn(100000)+1), core.Categories()[rng.Intn(len(core.Categories()))]))
		ids = append(ids, id)
	}

	var sum int64
	for _, e := range l.Expenses() {
		sum += e.Amount.Cents
	}
	assert.Equal(t, sum, l.Total().Cents)
	assert.Equal(t, len(ids), l.Len())
}

func TestGroupByCategory(t *testing.T) {
	l := New(
		expense("1", 1000, core.Others),
		expense("2", 500, core.Food),
		expense("3", 700, core.Shopping),
		expense("4", 250, core.Food),
	)

	got := l.GroupByCategory()
	assert.Equal(t, []core.CategoryAmount{
		{Category: core.Shopping, Amount: core.Money{Cents: 700}, Count: 1},
		{Category: core.Food, Amount: core.Money{Cents: 750}, Count: 2},
		{Category: core.Others, Amount: core.Money{Cents: 1000}, Count: 1},
	}, got)

	assert.Equal(t, map[core.Category]core.Money{
		core.Shopping: {Cents: 700},
		core.Food:     {Cents: 750},
		core.Others:   {Cents: 1000},
	}, l.CategoryTotals())

	assert.Empty(t, New().GroupByCategory())
}

func TestForTrip(t *testing.T) {
	a := expense("1", 1000, core.Food)
	a.TripID = "3"
	b := expense("2", 500, core.Food)
	c := expense("3", 200, core.Lodging)
	c.TripID = "3"
	l := New(a, b, c)

	trip := l.ForTrip("3")
	assert.Equal(t, 2, trip.Len())
	assert.Equal(t, int64(1200), trip.Total().Cents)

	loose := l.ForTrip(core.Unassigned)
	assert.Equal(t, 1, loose.Len())
	assert.Equal(t, int64(500), loose.Total().Cents)
}

func TestNewest(t *testing.T) {
	old := expense("1", 100, core.Food)
	old.Date = core.NewDate(2024, 1, 1)
	recent := expense("2", 100, core.Food)
	recent.Date = core.NewDate(2024, 6, 1)

	got := New(old, recent).Newest()
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
}
