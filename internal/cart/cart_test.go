package cart

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EcoFinds/internal/catalog"
)

func product(id, price string) catalog.Product {
	return catalog.Product{ID: id, Title: "item " + id, Price: decimal.RequireFromString(price)}
}

func TestCart_AddRejectsDuplicate(t *testing.T) {
	var c Cart

	require.NoError(t, c.Add(product("1", "89.99")))
	require.ErrorIs(t, c.Add(product("1", "89.99")), ErrAlreadyInCart)
	assert.Equal(t, 1, c.Len())
}

func TestCart_NoDuplicatesUnderRandomAdds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var c Cart

	for i := 0; i < 500; i++ {
		id := strconv.Itoa(rng.Intn(20))
		_ = c.Add(product(id, "1"))
		if rng.Intn(5) == 0 {
			c.Remove(strconv.Itoa(rng.Intn(20)))
		}
	}

	seen := map[string]bool{}
	for _, p := range c.Items() {
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestCart_RemoveAndTotal(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product("a", "10.10")))
	require.NoError(t, c.Add(product("b", "0.20")))

	assert.Equal(t, "10.3", c.Total().String())

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, "0.2", c.Total().String())
}

func TestCheckout_MovesEverything(t *testing.T) {
	var (
		c Cart
		h History
	)
	require.NoError(t, c.Add(product("1", "89.99")))
	require.NoError(t, c.Add(product("2", "150")))
	before := h.Len() + c.Len()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Checkout(&c, &h, at)

	assert.Equal(t, 2, r.Count)
	assert.Equal(t, "239.99", r.Total.String())
	assert.Equal(t, at, r.At)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, before, h.Len())
	assert.Equal(t, "1", h.Items()[0].ID)
	assert.Equal(t, "2", h.Recent(1)[0].ID)
}

func TestCheckout_Empty(t *testing.T) {
	var (
		c Cart
		h History
	)

	r := Checkout(&c, &h, time.Now())
	assert.Equal(t, 0, r.Count)
	assert.True(t, r.Total.IsZero())
	assert.NotNil(t, r.Items)
	assert.Equal(t, 0, h.Len())
}

func TestCart_ItemsIsACopy(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(product("1", "1")))

	items := c.Items()
	items[0].ID = "mutated"

	assert.True(t, c.Contains("1"))
}
