package commerce

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SortedByPrice(t *testing.T) {
	products, err := NewSearcher().Search(context.Background(), "Gaming Laptop")
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, "Flipkart", products[0].Store)
	assert.InDelta(t, 950.0, products[0].Price, 0.001)
	assert.Equal(t, "Amazon", products[1].Store)
	assert.InDelta(t, 1100.0, products[1].Price, 0.001)
	assert.Equal(t, "Shopify (Various)", products[2].Store)
	assert.InDelta(t, 1500.0, products[2].Price, 0.001)
	for _, p := range products {
		assert.Equal(t, "INR", p.Currency)
	}
}

func TestSearch_NonLaptopPricing(t *testing.T) {
	products, err := NewSearcher().Search(context.Background(), "shoes")
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.InDelta(t, 47.5, products[0].Price, 0.001)
	assert.InDelta(t, 55.0, products[1].Price, 0.001)
	assert.InDelta(t, 80.0, products[2].Price, 0.001)
}

type failingStore struct{}

func (failingStore) Name() string { return "broken" }
func (failingStore) Search(context.Context, string) ([]Product, error) {
	return nil, errors.New("store offline")
}

func TestSearch_StoreError(t *testing.T) {
	s := NewSearcher(append(DefaultStores(), failingStore{})...)
	_, err := s.Search(context.Background(), "shoes")
	assert.ErrorContains(t, err, "store offline")
}

func TestSearch_EmptyKeyword(t *testing.T) {
	_, err := NewSearcher().Search(context.Background(), "")
	assert.Error(t, err)
}
