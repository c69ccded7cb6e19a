package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ParseCriteria builds query criteria from request parameters.
//
// It never fails. Malformed input falls back to a default: unparseable or
// non-finite price bounds are dropped, an unknown sort key becomes
// SortNewest and an unknown language becomes English.
//
// Recognized keys: search (or q), lang, category, subcategory,
// new (or filter=new), min (or priceMin), max (or priceMax), sort.
func ParseCriteria(v url.Values) Criteria {
	c := Criteria{
		SearchText:  strings.TrimSpace(first(v, "search", "q")),
		Locale:      ParseLocale(strings.ToLower(strings.TrimSpace(v.Get("lang")))),
		Category:    strings.TrimSpace(v.Get("category")),
		Subcategory: strings.TrimSpace(v.Get("subcategory")),
		OnlyNew:     parseFlag(v.Get("new")) || v.Get("filter") == "new",
		PriceMin:    parseBound(first(v, "min", "priceMin")),
		PriceMax:    parseBound(first(v, "max", "priceMax")),
		SortBy:      SortKey(strings.TrimSpace(v.Get("sort"))),
	}
	if !c.SortBy.Valid() {
		c.SortBy = SortNewest
	}
	return c
}

// first returns the value of the first key present and non-empty.
func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Get(k); s != "" {
			return s
		}
	}
	return ""
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func parseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
