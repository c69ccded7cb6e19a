package catalog

import (
	"errors"
	"fmt"
)

// LowStockThreshold is the highest per-size stock still counted as low.
const LowStockThreshold = 5

// ErrSizeIndex is returned when a size index does not exist on a product.
var ErrSizeIndex = errors.New("size index out of range")

// IsLowStock reports whether some size is running low but not yet sold out.
func IsLowStock(p Product) bool {
	for _, s := range p.Sizes {
		if s.Stock > 0 && s.Stock <= LowStockThreshold {
			return true
		}
	}
	return false
}

// IsOutOfStock reports whether every size is sold out. A product without
// sizes is out of stock.
func IsOutOfStock(p Product) bool {
	return !p.InStock()
}

// LowStock returns the products with at least one low size, in input order.
func LowStock(products []Product) []Product {
	return keep(products, IsLowStock)
}

// OutOfStock returns the sold out products, in input order.
func OutOfStock(products []Product) []Product {
	return keep(products, IsOutOfStock)
}

func keep(products []Product, pred func(Product) bool) []Product {
	out := make([]Product, 0)
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// WithSizeStock returns a copy of sizes with the stock at index replaced.
func WithSizeStock(sizes []SizeStock, index, stock int) ([]SizeStock, error) {
	if index < 0 || index >= len(sizes) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSizeIndex, index, len(sizes))
	}
	if stock < 0 {
		stock = 0
	}
	out := append([]SizeStock(nil), sizes...)
	out[index].Stock = stock
	return out, nil
}

// Summary is the dashboard overview of a catalog.
type Summary struct {
	Products   int            `json:"products"`
	TotalUnits int            `json:"totalUnits"`
	LowStock   int            `json:"lowStock"`
	OutOfStock int            `json:"outOfStock"`
	New        int            `json:"new"`
	Featured   int            `json:"featured"`
	ByCategory map[string]int `json:"byCategory"`
}

// Summarize computes the dashboard overview of products.
func Summarize(products []Product) Summary {
	s := Summary{
		Products:   len(products),
		ByCategory: make(map[string]int),
	}
	for _, p := range products {
		s.TotalUnits += p.TotalStock()
		if IsLowStock(p) {
			s.LowStock++
		}
		if IsOutOfStock(p) {
			s.OutOfStock++
		}
		if p.IsNew {
			s.New++
		}
		if p.Featured {
			s.Featured++
		}
		s.ByCategory[p.Category]++
	}
	return s
}
