// Package catalog holds the product model of the storefront and the query
// engine that filters and orders a product collection for display.
//
// Everything in this package is pure: functions take an already materialized
// slice of products and return a new slice. Persistence lives in the store
// package and request parsing lives at the HTTP boundary.
package catalog

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxPrice is the smallest price the product store cannot hold. Prices are
// kept with two decimal places.
const MaxPrice = 1e10

// RoundPrice rounds p half away from zero to two decimal places, the
// precision prices are stored with. Non-finite values are returned as is.
func RoundPrice(p float64) float64 {
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return p
	}
	return decimal.NewFromFloat(p).Round(2).InexactFloat64()
}

// Locale selects which side of a LocalizedText is displayed.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleAR Locale = "ar"
)

// ParseLocale returns the locale for a language code, defaulting to English.
func ParseLocale(s string) Locale {
	if Locale(s) == LocaleAR {
		return LocaleAR
	}
	return LocaleEN
}

// LocalizedText is a display string in both supported locales.
type LocalizedText struct {
	EN string `json:"en"`
	AR string `json:"ar"`
}

// In returns the text for the given locale.
func (t LocalizedText) In(l Locale) string {
	if l == LocaleAR {
		return t.AR
	}
	return t.EN
}

// SizeStock is the stock held for one size label. Labels are free-form:
// shoe sizes, letter sizes and pack counts share the same field.
type SizeStock struct {
	Size  string `json:"size"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// Draft is a product that has not been persisted yet (no ID, no CreatedAt).
type Draft struct {
	ArticleNumber string        `json:"articleNumber" validate:"required"`
	Name          LocalizedText `json:"name"`
	Description   LocalizedText `json:"description"`
	Category      string        `json:"category"`
	Subcategory   string        `json:"subcategory"`
	Price         float64       `json:"price" validate:"gte=0,lt=10000000000"`
	Images        []string      `json:"images"`
	Sizes         []SizeStock   `json:"sizes" validate:"dive"`
	IsNew         bool          `json:"isNew"`
	Featured      bool          `json:"featured"`
}

// Product is a persisted catalog entry.
type Product struct {
	ID string `json:"id"`
	Draft
	CreatedAt time.Time `json:"createdAt"`
}

// TotalStock returns the sum of stock across all sizes.
func (d Draft) TotalStock() int {
	total := 0
	for _, s := range d.Sizes {
		total += s.Stock
	}
	return total
}

// InStock reports whether at least one size has stock left.
func (d Draft) InStock() bool {
	for _, s := range d.Sizes {
		if s.Stock > 0 {
			return true
		}
	}
	return false
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ArticleNumber *string        `json:"articleNumber,omitempty" validate:"omitnil,min=1"`
	Name          *LocalizedText `json:"name,omitempty"`
	Description   *LocalizedText `json:"description,omitempty"`
	Category      *string        `json:"category,omitempty"`
	Subcategory   *string        `json:"subcategory,omitempty"`
	Price         *float64       `json:"price,omitempty" validate:"omitnil,gte=0,lt=10000000000"`
	Images        []string       `json:"images,omitempty"`
	Sizes         []SizeStock    `json:"sizes,omitempty" validate:"dive"`
	IsNew         *bool          `json:"isNew,omitempty"`
	Featured      *bool          `json:"featured,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.ArticleNumber == nil && p.Name == nil && p.Description == nil &&
		p.Category == nil && p.Subcategory == nil && p.Price == nil &&
		p.Images == nil && p.Sizes == nil && p.IsNew == nil && p.Featured == nil
}

// Apply returns a copy of p with the patch fields written over it.
func (p Patch) Apply(prod Product) Product {
	if p.ArticleNumber != nil {
		prod.ArticleNumber = *p.ArticleNumber
	}
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Subcategory != nil {
		prod.Subcategory = *p.Subcategory
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Images != nil {
		prod.Images = append([]string(nil), p.Images...)
	}
	if p.Sizes != nil {
		prod.Sizes = append([]SizeStock(nil), p.Sizes...)
	}
	if p.IsNew != nil {
		prod.IsNew = *p.IsNew
	}
	if p.Featured != nil {
		prod.Featured = *p.Featured
	}
	return prod
}

// Category identifiers.
const (
	CategoryPadel    = "padel"
	CategoryFootball = "football"
	CategorySwimming = "swimming"
	CategoryTennis   = "tennis"
)

// Subcategory identifiers.
const (
	SubcategoryShoes       = "shoes"
	SubcategoryRackets     = "rackets"
	SubcategoryBalls       = "balls"
	SubcategoryApparel     = "apparel"
	SubcategoryAccessories = "accessories"
	SubcategoryEquipment   = "equipment"
)

// Option is a selectable category or subcategory with its display names.
type Option struct {
	ID   string        `json:"id"`
	Name LocalizedText `json:"name"`
}

// Categories lists the storefront categories in display order.
var Categories = []Option{
	{ID: CategoryPadel, Name: LocalizedText{EN: "Padel", AR: "بادل"}},
	{ID: CategoryFootball, Name: LocalizedText{EN: "Football", AR: "كرة القدم"}},
	{ID: CategorySwimming, Name: LocalizedText{EN: "Swimming", AR: "سباحة"}},
	{ID: CategoryTennis, Name: LocalizedText{EN: "Tennis", AR: "تنس"}},
}

// Subcategories lists the storefront subcategories in display order.
var Subcategories = []Option{
	{ID: SubcategoryShoes, Name: LocalizedText{EN: "Shoes", AR: "أحذية"}},
	{ID: SubcategoryRackets, Name: LocalizedText{EN: "Rackets / Balls", AR: "مضارب / كرات"}},
	{ID: SubcategoryBalls, Name: LocalizedText{EN: "Balls", AR: "كرات"}},
	{ID: SubcategoryApparel, Name: LocalizedText{EN: "Apparel", AR: "ملابس"}},
	{ID: SubcategoryAccessories, Name: LocalizedText{EN: "Accessories", AR: "إكسسوارات"}},
	{ID: SubcategoryEquipment, Name: LocalizedText{EN: "Training Equipment", AR: "معدات تدريب"}},
}
