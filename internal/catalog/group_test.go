package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRows(t *testing.T) {
	p1 := unitProduct("prod_1", "Unit 1", true)
	p2 := unitProduct("prod_2", "Unit 2", true)
	p3 := unitProduct("prod_3", "Unit 3", true)
	cheap := usdPrice("price_a", "prod_1", 499, true)
	full := usdPrice("price_b", "prod_1", 699, true)
	retired := usdPrice("price_c", "prod_2", 599, false)

	tests := []struct {
		name   string
		rows   []Row
		wantID []string
		prices map[string][]string
	}{
		{
			name:   "empty input yields empty non-nil slice",
			rows:   nil,
			wantID: []string{},
			prices: map[string][]string{},
		},
		{
			name:   "product without price has empty price list",
			rows:   []Row{{Product: p3}},
			wantID: []string{"prod_3"},
			prices: map[string][]string{"prod_3": {}},
		},
		{
			name:   "rows grouped in first seen order",
			rows:   []Row{{Product: p2}, {Product: p1, Price: &cheap}, {Product: p1, Price: &full}},
			wantID: []string{"prod_2", "prod_1"},
			prices: map[string][]string{"prod_2": {}, "prod_1": {"price_a", "price_b"}},
		},
		{
			name:   "inactive prices are dropped",
			rows:   []Row{{Product: p2, Price: &retired}, {Product: p1, Price: &full}},
			wantID: []string{"prod_2", "prod_1"},
			prices: map[string][]string{"prod_2": {}, "prod_1": {"price_b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroupRows(tt.rows)
			require.NotNil(t, got)

			ids := make([]string, 0, len(got))
			for _, g := range got {
				ids = append(ids, g.ID)
				require.NotNil(t, g.Prices, "prices of %s must never be nil", g.ID)

				priceIDs := make([]string, 0, len(g.Prices))
				for _, pr := range g.Prices {
					assert.True(t, pr.Active)
					assert.Equal(t, g.ID, pr.ProductID)
					priceIDs = append(priceIDs, pr.ID)
				}
				assert.Equal(t, tt.prices[g.ID], priceIDs)
			}
			assert.Equal(t, tt.wantID, ids)
		})
	}
}

func TestGroupRowsDefaultsMetadata(t *testing.T) {
	got := GroupRows([]Row{{Product: Product{ID: "prod_x", Name: "X", Active: true}}})
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Metadata)
}

func TestJoinInMemory(t *testing.T) {
	products := []Product{unitProduct("prod_1", "Unit 1", true), unitProduct("prod_2", "Unit 2", true)}
	prices := []Price{
		usdPrice("price_1", "prod_1", 699, true),
		usdPrice("price_orphan", "prod_9", 699, true),
	}

	got := GroupRows(joinInMemory(products, prices))
	require.Len(t, got, 2)
	assert.Equal(t, "prod_1", got[0].ID)
	require.Len(t, got[0].Prices, 1)
	assert.Equal(t, "price_1", got[0].Prices[0].ID)
	assert.Empty(t, got[1].Prices)
}
