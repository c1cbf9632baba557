package listing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EcoFinds/internal/catalog"
)

func valid() Input {
	return Input{
		Title:       "Desk lamp",
		Description: "Brass desk lamp, works fine.",
		Category:    string(catalog.HomeGarden),
		Price:       decimal.RequireFromString("25.50"),
	}
}

func fieldErrs(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
	return ve.Fields
}

func TestValidate_PriceBounds(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0", false},
		{"0.01", true},
		{"10000", true},
		{"10000.01", false},
		{"-5", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			in := valid()
			in.Price = decimal.RequireFromString(tt.price)
			err := in.Validate()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.Contains(t, fieldErrs(t, err), "price")
		})
	}
}

func TestValidate_DescriptionBounds(t *testing.T) {
	in := valid()

	in.Description = strings.Repeat("d", 9)
	assert.Contains(t, fieldErrs(t, in.Validate()), "description")

	in.Description = strings.Repeat("d", 10)
	require.NoError(t, in.Validate())

	in.Description = strings.Repeat("d", 500)
	require.NoError(t, in.Validate())

	in.Description = strings.Repeat("d", 501)
	assert.Contains(t, fieldErrs(t, in.Validate()), "description")
}

func TestValidate_TitleCountsRunes(t *testing.T) {
	in := valid()

	in.Title = "   "
	assert.Contains(t, fieldErrs(t, in.Validate()), "title")

	in.Title = strings.Repeat("é", 100)
	require.NoError(t, in.Validate())

	in.Title = strings.Repeat("é", 101)
	assert.Contains(t, fieldErrs(t, in.Validate()), "title")
}

func TestValidate_ReportsEveryField(t *testing.T) {
	err := Input{Category: "All"}.Validate()
	fields := fieldErrs(t, err)

	assert.Len(t, fields, 4)
	assert.Equal(t, "Unknown category", fields["category"])
	assert.Contains(t, err.Error(), "category: Unknown category")
}

func TestMinter_Mint(t *testing.T) {
	m := NewMinter()
	fixed := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	in := valid()
	in.Title = "  Desk lamp  "

	a, err := m.Mint(in, "current-user")
	require.NoError(t, err)
	b, err := m.Mint(in, "current-user")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, "Desk lamp", a.Title)
	assert.Equal(t, PlaceholderImage, a.Image)
	assert.Equal(t, "current-user", a.OwnerID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), a.CreatedAt)
	assert.Equal(t, catalog.HomeGarden, a.Category)
}

func TestMinter_MintRejectsInvalid(t *testing.T) {
	in := valid()
	in.Price = decimal.Zero

	_, err := NewMinter().Mint(in, "u")
	assert.Contains(t, fieldErrs(t, err), "price")
}

func TestApply_KeepsIdentity(t *testing.T) {
	orig := catalog.Product{
		ID:        "p1",
		OwnerID:   "u1",
		Image:     "/img/a.jpg",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got, err := Apply(orig, valid())
	require.NoError(t, err)

	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, "/img/a.jpg", got.Image)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, "Desk lamp", got.Title)

	_, err = Apply(orig, Input{})
	require.Error(t, err)
}
