package catalog

// GroupRows folds join rows into one ProductWithPrice per distinct product id,
// keeping the order in which products were first seen. Inactive prices are
// dropped so they never reach the display layer.
func GroupRows(rows []Row) []ProductWithPrice {
	out := make([]ProductWithPrice, 0)
	index := make(map[string]int)

	for _, row := range rows {
		i, seen := index[row.Product.ID]
		if !seen {
			p := row.Product
			if p.Metadata == nil {
				p.Metadata = map[string]string{}
			}
			out = append(out, ProductWithPrice{Product: p, Prices: []Price{}})
			i = len(out) - 1
			index[row.Product.ID] = i
		}
		if row.Price == nil || !row.Price.Active {
			continue
		}
		price := *row.Price
		price.ProductID = row.Product.ID
		out[i].Prices = append(out[i].Prices, price)
	}
	return out
}

// joinInMemory builds join rows from separately listed products and prices,
// matching prices to products by provider id.
func joinInMemory(products []Product, prices []Price) []Row {
	byProduct := make(map[string][]Price)
	for _, pr := range prices {
		byProduct[pr.ProductID] = append(byProduct[pr.ProductID], pr)
	}

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		matched := byProduct[p.ID]
		if len(matched) == 0 {
			rows = append(rows, Row{Product: p})
			continue
		}
		for i := range matched {
			rows = append(rows, Row{Product: p, Price: &matched[i]})
		}
	}
	return rows
}
