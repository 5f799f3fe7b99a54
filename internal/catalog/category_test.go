package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryLinksAreMutual(t *testing.T) {
	reg := NewRegistry()
	media := NewCategory(1, "Media", "")
	p := reg.NewProduct(Attributes{Name: "Vinyl", Price: 30, Quantity: 2})

	require.True(t, media.AddProduct(p))
	require.False(t, media.AddProduct(p), "no duplicates")
	require.False(t, media.AddProduct(nil))
	require.Same(t, media, p.Category())
	require.Equal(t, 1, media.Len())
	require.InDelta(t, 60.0, media.TotalValue(), 1e-9)

	require.True(t, media.RemoveProduct(p))
	require.Nil(t, p.Category())
	require.False(t, media.RemoveProduct(p))
	require.Zero(t, media.Len())
}

func TestCategoryMoveDetachesFromPrevious(t *testing.T) {
	reg := NewRegistry()
	a := NewCategory(1, "Audio", "")
	b := NewCategory(2, "Video", "")
	p := reg.NewProduct(Attributes{Name: "Cable"})

	require.True(t, p.TrySetCategory(a))
	require.True(t, p.TrySetCategory(b))
	require.False(t, a.Contains(p))
	require.True(t, b.Contains(p))
	require.Same(t, b, p.Category())
	require.False(t, p.TrySetCategory(nil))
}

func TestCategoryProductsIsCopy(t *testing.T) {
	reg := NewRegistry()
	c := NewCategory(1, "Tools", "")
	c.AddProduct(reg.NewProduct(Attributes{Name: "Hammer"}))
	items := c.Products()
	items[0] = nil
	require.NotNil(t, c.Products()[0])
}
