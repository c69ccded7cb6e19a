package catalog

import (
	"net/url"
	"slices"
	"testing"
)

func fixture() []Product {
	mk := func(id, article, en, ar, cat, sub string, price float64, isNew bool) Product {
		return Product{
			ID: id,
			Draft: Draft{
				ArticleNumber: article,
				Name:          LocalizedText{EN: en, AR: ar},
				Description:   LocalizedText{EN: en + " for players", AR: ar},
				Category:      cat,
				Subcategory:   sub,
				Price:         price,
				Sizes:         []SizeStock{{Size: "One Size", Stock: 10}},
				IsNew:         isNew,
			},
		}
	}
	return []Product{
		mk("1", "190981", "Court Padel X3", "كورت بادل", CategoryPadel, SubcategoryShoes, 430, true),
		mk("2", "206641", "Wrist Strap", "سوار معصم", CategoryPadel, SubcategoryAccessories, 500, false),
		mk("3", "216447", "Technical Viper", "تيكنيكال فايبر", CategoryPadel, SubcategoryRackets, 14900, true),
		mk("4", "300100", "Speed Goggles", "نظارة سباحة", CategorySwimming, SubcategoryAccessories, 430, false),
		mk("5", "400200", "Tennis Racket Pro", "مضرب تنس", CategoryTennis, SubcategoryRackets, 2500, false),
		mk("6", "500300", "apex football boot", "حذاء كرة", CategoryFootball, SubcategoryShoes, 1200, true),
	}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func ptr(f float64) *float64 { return &f }

// ----------------------------------------------------------------------------
// Filtering
// ----------------------------------------------------------------------------

func TestQuery_Filters(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "no criteria is identity",
			criteria: Criteria{},
			want:     []string{"1", "2", "3", "4", "5", "6"},
		},
		{
			name:     "search matches name case-insensitively",
			criteria: Criteria{SearchText: "PADEL"},
			want:     []string{"1"},
		},
		{
			name:     "search matches description",
			criteria: Criteria{SearchText: "for players", Category: CategoryTennis},
			want:     []string{"5"},
		},
		{
			name:     "search matches article number",
			criteria: Criteria{SearchText: "2066"},
			want:     []string{"2"},
		},
		{
			name:     "search uses arabic text when locale is ar",
			criteria: Criteria{SearchText: "مضرب", Locale: LocaleAR},
			want:     []string{"5"},
		},
		{
			name:     "english search ignored against arabic locale",
			criteria: Criteria{SearchText: "strap", Locale: LocaleAR},
			want:     []string{},
		},
		{
			name:     "whitespace search is no filter",
			criteria: Criteria{SearchText: "   "},
			want:     []string{"1", "2", "3", "4", "5", "6"},
		},
		{
			name:     "category exact match",
			criteria: Criteria{Category: CategoryPadel},
			want:     []string{"1", "2", "3"},
		},
		{
			name:     "subcategory applied without category",
			criteria: Criteria{Subcategory: SubcategoryRackets},
			want:     []string{"3", "5"},
		},
		{
			name:     "category and subcategory",
			criteria: Criteria{Category: CategoryPadel, Subcategory: SubcategoryRackets},
			want:     []string{"3"},
		},
		{
			name:     "unknown category is empty",
			criteria: Criteria{Category: "golf"},
			want:     []string{},
		},
		{
			name:     "only new",
			criteria: Criteria{OnlyNew: true},
			want:     []string{"1", "3", "6"},
		},
		{
			name:     "inclusive price bounds",
			criteria: Criteria{PriceMin: ptr(430), PriceMax: ptr(500)},
			want:     []string{"1", "2", "4"},
		},
		{
			name:     "open upper bound",
			criteria: Criteria{PriceMin: ptr(2500)},
			want:     []string{"3", "5"},
		},
		{
			name:     "min greater than max is empty",
			criteria: Criteria{PriceMin: ptr(1000), PriceMax: ptr(10)},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Query(fixture(), tt.criteria))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Query() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuery_EmptyInput(t *testing.T) {
	got := Query(nil, Criteria{SortBy: SortName})
	if got == nil || len(got) != 0 {
		t.Errorf("Query(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	before := ids(in)
	_ = Query(in, Criteria{SortBy: SortPriceDesc})
	if after := ids(in); !slices.Equal(before, after) {
		t.Errorf("input reordered: %v -> %v", before, after)
	}
}

func TestQuery_FilterIdempotent(t *testing.T) {
	c := Criteria{Category: CategoryPadel, OnlyNew: true, PriceMax: ptr(20000)}
	once := Query(fixture(), c)
	twice := Query(once, c)
	if !slices.Equal(ids(once), ids(twice)) {
		t.Errorf("filter not idempotent: %v then %v", ids(once), ids(twice))
	}
}

// ----------------------------------------------------------------------------
// Sorting
// ----------------------------------------------------------------------------

func TestQuery_Sort(t *testing.T) {
	tests := []struct {
		name   string
		sort   SortKey
		locale Locale
		want   []string
	}{
		{"newest keeps input order", SortNewest, LocaleEN, []string{"1", "2", "3", "4", "5", "6"}},
		{"empty key keeps input order", "", LocaleEN, []string{"1", "2", "3", "4", "5", "6"}},
		{"price ascending is stable", SortPriceAsc, LocaleEN, []string{"1", "4", "2", "6", "5", "3"}},
		{"price descending is stable", SortPriceDesc, LocaleEN, []string{"3", "5", "6", "2", "1", "4"}},
		{"name ignores case", SortName, LocaleEN, []string{"6", "1", "4", "3", "5", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Query(fixture(), Criteria{SortBy: tt.sort, Locale: tt.locale}))
			if !slices.Equal(got, tt.want) {
				t.Errorf("sort %q = %v, want %v", tt.sort, got, tt.want)
			}
		})
	}
}

func TestQuery_PriceAscAdjacentPairs(t *testing.T) {
	got := Query(fixture(), Criteria{SortBy: SortPriceAsc})
	for i := 0; i+1 < len(got); i++ {
		if got[i].Price > got[i+1].Price {
			t.Fatalf("result[%d].Price = %v > result[%d].Price = %v", i, got[i].Price, i+1, got[i+1].Price)
		}
	}
}

func TestQuery_SortIdempotent(t *testing.T) {
	for _, key := range []SortKey{SortPriceAsc, SortPriceDesc, SortName} {
		for _, locale := range []Locale{LocaleEN, LocaleAR} {
			c := Criteria{SortBy: key, Locale: locale}
			once := Query(fixture(), c)
			twice := Query(once, c)
			if !slices.Equal(ids(once), ids(twice)) {
				t.Errorf("sort %q/%s not idempotent: %v then %v", key, locale, ids(once), ids(twice))
			}
		}
	}
}

func TestQuery_NameSortArabic(t *testing.T) {
	products := []Product{
		{ID: "b", Draft: Draft{Name: LocalizedText{EN: "b", AR: "ب"}}},
		{ID: "c", Draft: Draft{Name: LocalizedText{EN: "c", AR: "ت"}}},
		{ID: "a", Draft: Draft{Name: LocalizedText{EN: "a", AR: "أ"}}},
	}
	got := ids(Query(products, Criteria{SortBy: SortName, Locale: LocaleAR}))
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("arabic name sort = %v, want %v", got, want)
	}
}

// ----------------------------------------------------------------------------
// ParseCriteria
// ----------------------------------------------------------------------------

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(t *testing.T, c Criteria)
	}{
		{
			name:  "empty query",
			query: "",
			check: func(t *testing.T, c Criteria) {
				if c.SortBy != SortNewest || c.Locale != LocaleEN || c.PriceMin != nil || c.PriceMax != nil {
					t.Errorf("unexpected defaults: %+v", c)
				}
			},
		},
		{
			name:  "all keys",
			query: "search=+court+&lang=ar&category=padel&subcategory=shoes&new=true&min=10&max=500&sort=price-desc",
			check: func(t *testing.T, c Criteria) {
				if c.SearchText != "court" {
					t.Errorf("SearchText = %q, want %q", c.SearchText, "court")
				}
				if c.Locale != LocaleAR {
					t.Errorf("Locale = %q, want ar", c.Locale)
				}
				if c.Category != "padel" || c.Subcategory != "shoes" {
					t.Errorf("category = %q/%q", c.Category, c.Subcategory)
				}
				if !c.OnlyNew {
					t.Error("OnlyNew = false, want true")
				}
				if c.PriceMin == nil || *c.PriceMin != 10 || c.PriceMax == nil || *c.PriceMax != 500 {
					t.Errorf("bounds = %v/%v", c.PriceMin, c.PriceMax)
				}
				if c.SortBy != SortPriceDesc {
					t.Errorf("SortBy = %q", c.SortBy)
				}
			},
		},
		{
			name:  "aliases",
			query: "q=strap&filter=new&priceMin=1&priceMax=2",
			check: func(t *testing.T, c Criteria) {
				if c.SearchText != "strap" || !c.OnlyNew {
					t.Errorf("aliases not honored: %+v", c)
				}
				if c.PriceMin == nil || *c.PriceMin != 1 || c.PriceMax == nil || *c.PriceMax != 2 {
					t.Errorf("bounds = %v/%v", c.PriceMin, c.PriceMax)
				}
			},
		},
		{
			name:  "malformed values normalized",
			query: "min=abc&max=NaN&sort=popular&lang=fr&new=maybe",
			check: func(t *testing.T, c Criteria) {
				if c.PriceMin != nil || c.PriceMax != nil {
					t.Errorf("bounds should be dropped: %v/%v", c.PriceMin, c.PriceMax)
				}
				if c.SortBy != SortNewest {
					t.Errorf("SortBy = %q, want newest", c.SortBy)
				}
				if c.Locale != LocaleEN {
					t.Errorf("Locale = %q, want en", c.Locale)
				}
				if c.OnlyNew {
					t.Error("OnlyNew = true, want false")
				}
			},
		},
		{
			name:  "infinite bound dropped",
			query: "max=%2BInf",
			check: func(t *testing.T, c Criteria) {
				if c.PriceMax != nil {
					t.Errorf("PriceMax = %v, want nil", *c.PriceMax)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("ParseQuery: %v", err)
			}
			tt.check(t, ParseCriteria(v))
		})
	}
}
