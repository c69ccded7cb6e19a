package catalog

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey names an ordering of query results.
type SortKey string

const (
	// SortNewest keeps input order. Collections are held newest first.
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortName      SortKey = "name"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
		return true
	}
	return false
}

// Criteria describes the filters and ordering of a catalog query.
// The zero value matches everything in input order.
type Criteria struct {
	SearchText  string
	Locale      Locale
	Category    string
	Subcategory string
	OnlyNew     bool
	PriceMin    *float64
	PriceMax    *float64
	SortBy      SortKey
}

// Query returns the products matching c, ordered by c.SortBy.
//
// Query never modifies its input and always returns a new slice, empty rather
// than nil when nothing matches. Filters are independent and combined with AND.
// All orderings are stable so ties keep their input order.
func Query(products []Product, c Criteria) []Product {
	out := make([]Product, 0, len(products))
	if c.PriceMin != nil && c.PriceMax != nil && *c.PriceMin > *c.PriceMax {
		return out
	}

	match := c.matcher()
	for _, p := range products {
		if match(p) {
			out = append(out, p)
		}
	}

	sortProducts(out, c.SortBy, c.Locale)
	return out
}

// matcher builds the conjunction of every active filter in c.
func (c Criteria) matcher() func(Product) bool {
	var preds []func(Product) bool

	if needle := strings.TrimSpace(c.SearchText); needle != "" {
		fold := cases.Fold()
		needle = fold.String(needle)
		locale := c.Locale
		preds = append(preds, func(p Product) bool {
			for _, hay := range []string{p.Name.In(locale), p.Description.In(locale), p.ArticleNumber} {
				if strings.Contains(fold.String(hay), needle) {
					return true
				}
			}
			return false
		})
	}
	if c.Category != "" {
		preds = append(preds, func(p Product) bool { return p.Category == c.Category })
	}
	if c.Subcategory != "" {
		preds = append(preds, func(p Product) bool { return p.Subcategory == c.Subcategory })
	}
	if c.OnlyNew {
		preds = append(preds, func(p Product) bool { return p.IsNew })
	}
	if c.PriceMin != nil {
		lo := *c.PriceMin
		preds = append(preds, func(p Product) bool { return p.Price >= lo })
	}
	if c.PriceMax != nil {
		hi := *c.PriceMax
		preds = append(preds, func(p Product) bool { return p.Price <= hi })
	}

	return func(p Product) bool {
		for _, pred := range preds {
			if !pred(p) {
				return false
			}
		}
		return true
	}
}

func sortProducts(products []Product, key SortKey, locale Locale) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return compareFloat(a.Price, b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return compareFloat(b.Price, a.Price)
		})
	case SortName:
		// Collators carry state and are not safe to share, so build one per call.
		col := collate.New(localeTag(locale), collate.IgnoreCase)
		slices.SortStableFunc(products, func(a, b Product) int {
			return col.CompareString(a.Name.In(locale), b.Name.In(locale))
		})
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func localeTag(l Locale) language.Tag {
	if l == LocaleAR {
		return language.Arabic
	}
	return language.English
}
