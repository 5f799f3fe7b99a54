package catalog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryAutoIDsSkipTakenValues(t *testing.T) {
	reg := NewRegistry()
	explicit := reg.Of("10", "Explicit", 10)
	require.Equal(t, "10", explicit.ID())

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, reg.NewProduct(Attributes{Name: "Auto"}).ID())
	}
	require.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "11"}, ids)
	require.EqualValues(t, 11, reg.Created())
}

func TestRegistryShortIDFallsBackToSequence(t *testing.T) {
	reg := NewRegistry()
	p := reg.Of("2", "Too short", 10)
	require.Equal(t, "1", p.ID())
}

func TestRegistryInstanceIsUniquePerCreation(t *testing.T) {
	reg := NewRegistry()
	a := reg.Of("SKU", "A", 1)
	require.NotEmpty(t, a.Instance())
	require.True(t, reg.Release(a))
	b := reg.Of("SKU", "B", 1)
	require.Equal(t, a.ID(), b.ID())
	require.NotEqual(t, a.Instance(), b.Instance())
}

func TestRegistryDuplicateRequestFallsBack(t *testing.T) {
	reg := NewRegistry()
	a := reg.Of("LP001", "Laptop", 1)
	b := reg.Of("LP001", "Laptop clone", 1)
	require.Equal(t, "LP001", a.ID())
	require.NotEqual(t, "LP001", b.ID())
	require.Equal(t, 2, reg.Len())
}

func TestTrySetIDUniquenessAndLock(t *testing.T) {
	reg := NewRegistry()
	a := reg.NewProduct(Attributes{Name: "A"})
	b := reg.NewProduct(Attributes{Name: "B"})

	require.True(t, a.TrySetID("ALPHA"))
	require.False(t, a.TrySetID("ALPHA-2"), "explicit ids are locked once claimed")
	require.False(t, b.TrySetID("ALPHA"))
	require.False(t, b.TrySetID("x"))

	got, ok := reg.Lookup("ALPHA")
	require.True(t, ok)
	require.Same(t, a, got)
	_, ok = reg.Lookup("1")
	require.False(t, ok, "previous id is released")
}

func TestReleaseFreesID(t *testing.T) {
	reg := NewRegistry()
	a := reg.Of("SKU", "A", 1)
	require.True(t, reg.Release(a))
	require.False(t, reg.Release(a))
	b := reg.Of("SKU", "B", 1)
	require.Equal(t, "SKU", b.ID())
	require.EqualValues(t, 2, reg.Created())
	require.Equal(t, 1, reg.Len())
}

func TestProductsInCreationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"C3", "A1", "B2"} {
		reg.Of(id, "Item "+id, 1)
	}
	var ids []string
	for _, p := range reg.Products() {
		ids = append(ids, p.ID())
	}
	require.Equal(t, []string{"C3", "A1", "B2"}, ids)
}

func TestFreeSample(t *testing.T) {
	p := NewRegistry().FreeSample("Sticker")
	require.Zero(t, p.Price())
	require.Equal(t, 1, p.Quantity())
	require.Equal(t, "Sticker", p.Name())
}

func TestConcurrentClaimsAreUnique(t *testing.T) {
	reg := NewRegistry()
	const workers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		owned int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := reg.NewProduct(Attributes{Name: fmt.Sprintf("Item %d", i)})
			if p.TrySetID("SHARED") {
				mu.Lock()
				owned++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 1, owned)
	require.Equal(t, workers, reg.Len())
}
