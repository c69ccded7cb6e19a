package importer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/albaseet/catalog/internal/catalog"
)

// Defaults used when a row leaves a value out.
const (
	DefaultStock               = 10
	DefaultSizeLabel           = "One Size"
	DefaultFallbackCategory    = catalog.CategoryPadel
	DefaultFallbackSubcategory = catalog.SubcategoryAccessories
)

// Rejection reasons.
const (
	ReasonMissingName  = "missing name"
	ReasonInvalidPrice = "invalid price"
)

var errInvalidPrice = errors.New("invalid price")

// Normalizer turns loosely structured spreadsheet rows into product drafts.
// The zero value is not usable; build one with NewNormalizer.
type Normalizer struct {
	Aliases             []FieldAliases
	CategoryRules       []Rule
	SubcategoryRules    []Rule
	FallbackCategory    string
	FallbackSubcategory string
	DefaultStock        int

	// Now stamps synthesized article numbers.
	Now func() time.Time
}

// NewNormalizer returns a normalizer with the default alias and keyword tables.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Aliases:             DefaultAliases,
		CategoryRules:       CategoryRules,
		SubcategoryRules:    SubcategoryRules,
		FallbackCategory:    DefaultFallbackCategory,
		FallbackSubcategory: DefaultFallbackSubcategory,
		DefaultStock:        DefaultStock,
		Now:                 time.Now,
	}
}

// Normalize normalizes rows with the default normalizer.
func Normalize(rows []Row) Result {
	return NewNormalizer().Normalize(rows)
}

// Normalize maps every row to a draft or a rejection. A bad row never stops
// the batch. Rows without article number, name and price are dropped and
// only counted in Skipped.
func (n *Normalizer) Normalize(rows []Row) Result {
	res := Result{
		Accepted: make([]catalog.Draft, 0, len(rows)),
		Rejected: make([]Rejection, 0),
	}
	stamp := n.Now().UnixMilli()

	for i, row := range rows {
		rowNum := row.Line
		if rowNum <= 0 {
			rowNum = i + 2
		}

		draft, reasons, ok := n.normalizeRow(row, i, stamp)
		switch {
		case !ok:
			res.Skipped++
		case len(reasons) > 0:
			res.Rejected = append(res.Rejected, Rejection{RowNumber: rowNum, Reasons: reasons})
		default:
			res.Accepted = append(res.Accepted, draft)
		}
	}
	return res
}

// normalizeRow returns ok=false for rows that carry none of the identifying
// fields.
func (n *Normalizer) normalizeRow(row Row, index int, stamp int64) (catalog.Draft, []string, bool) {
	r := newResolver(n.Aliases, row)

	article := r.Get(FieldArticleNumber)
	nameEN := r.Get(FieldNameEN)
	rawPrice := r.Get(FieldPrice)
	if article == "" && nameEN == "" && rawPrice == "" {
		return catalog.Draft{}, nil, false
	}

	var reasons []string
	if nameEN == "" {
		reasons = append(reasons, ReasonMissingName)
	}
	var price float64
	if rawPrice != "" {
		p, err := ParsePrice(rawPrice)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %s", ReasonInvalidPrice, rawPrice))
		}
		price = p
	}
	if len(reasons) > 0 {
		return catalog.Draft{}, reasons, true
	}

	nameAR := orDefault(r.Get(FieldNameAR), nameEN)
	flat, hasFlat := parseStock(r.Get(FieldStock))
	if !hasFlat {
		flat = n.DefaultStock
	}

	category := strings.ToLower(r.Get(FieldCategory))
	if category == "" {
		category = Infer(nameEN, n.CategoryRules, n.FallbackCategory)
	}
	subcategory := strings.ToLower(r.Get(FieldSubcategory))
	if subcategory == "" {
		subcategory = Infer(nameEN, n.SubcategoryRules, n.FallbackSubcategory)
	}

	if article == "" {
		article = fmt.Sprintf("PROD-%d-%d", stamp, index)
	}

	return catalog.Draft{
		ArticleNumber: article,
		Name:          catalog.LocalizedText{EN: nameEN, AR: nameAR},
		Description: catalog.LocalizedText{
			EN: orDefault(r.Get(FieldDescriptionEN), nameEN),
			AR: orDefault(r.Get(FieldDescriptionAR), nameAR),
		},
		Category:    category,
		Subcategory: subcategory,
		Price:       price,
		Images:      ParseImages(r.Get(FieldImages)),
		Sizes:       ParseSizes(r.Get(FieldSizes), flat),
		IsNew:       ParseFlag(r.Get(FieldIsNew)),
		Featured:    ParseFlag(r.Get(FieldFeatured)),
	}, nil, true
}

// ParsePrice reads a formatted amount such as "14,900.00" or "EGP 430".
// Every character other than digits and '.' is dropped before parsing. The
// result is rounded to two decimal places and must be below catalog.MaxPrice.
func ParsePrice(raw string) (float64, error) {
	var b strings.Builder
	for _, c := range raw {
		if (c >= '0' && c <= '9') || c == '.' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, errInvalidPrice
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil || d.IsNegative() {
		return 0, errInvalidPrice
	}
	f := d.Round(2).InexactFloat64()
	if math.IsInf(f, 0) || f >= catalog.MaxPrice {
		return 0, errInvalidPrice
	}
	return f, nil
}

// ParseSizes reads a "label:stock" list such as "40:10,41:15". A label with
// no stock, or with a stock that is not a number, gets fallback. An empty
// list yields a single "One Size" entry, so the result is never empty.
func ParseSizes(raw string, fallback int) []catalog.SizeStock {
	var sizes []catalog.SizeStock
	for _, part := range strings.Split(raw, ",") {
		label, stockText, _ := strings.Cut(strings.TrimSpace(part), ":")
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		stock, ok := parseStock(stockText)
		if !ok {
			stock = fallback
		}
		sizes = append(sizes, catalog.SizeStock{Size: label, Stock: stock})
	}
	if len(sizes) == 0 {
		sizes = []catalog.SizeStock{{Size: DefaultSizeLabel, Stock: fallback}}
	}
	return sizes
}

// ParseImages splits a comma separated list of image references.
func ParseImages(raw string) []string {
	images := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			images = append(images, s)
		}
	}
	return images
}

// ParseFlag accepts true, t, yes, y and 1 in any case.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true
	}
	return false
}

// parseStock reads a whole unit count. Spreadsheet exports sometimes write
// "10.0", so a float with no fraction is accepted. Negative counts clamp to 0.
func parseStock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, false
		}
		n = int(f)
	}
	if n < 0 {
		n = 0
	}
	return n, true
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
