package importer

import (
	"strings"

	"github.com/albaseet/catalog/internal/catalog"
)

// Rule assigns Value to any product name containing one of Keywords.
type Rule struct {
	Keywords []string
	Value    string
}

// CategoryRules are checked in order against the English product name.
var CategoryRules = []Rule{
	{Keywords: []string{"padel", "court"}, Value: catalog.CategoryPadel},
	{Keywords: []string{"football", "soccer"}, Value: catalog.CategoryFootball},
	{Keywords: []string{"swim", "goggle"}, Value: catalog.CategorySwimming},
	{Keywords: []string{"tennis", "racket"}, Value: catalog.CategoryTennis},
}

// SubcategoryRules are checked in order against the English product name.
var SubcategoryRules = []Rule{
	{Keywords: []string{"shoe", "court s", "boot"}, Value: catalog.SubcategoryShoes},
	{Keywords: []string{"racket", "racquet"}, Value: catalog.SubcategoryRackets},
	{Keywords: []string{"ball"}, Value: catalog.SubcategoryBalls},
	{Keywords: []string{"shirt", "jersey", "short"}, Value: catalog.SubcategoryApparel},
	{Keywords: []string{"strap", "bag", "grip"}, Value: catalog.SubcategoryAccessories},
}

// Infer returns the value of the first rule with a keyword in name, or
// fallback when none match.
func Infer(name string, rules []Rule, fallback string) string {
	lower := strings.ToLower(name)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Value
			}
		}
	}
	return fallback
}
