package importer

import (
	"strings"
	"unicode/utf8"
)

// Field is a logical product field that a spreadsheet column can feed.
type Field int

const (
	FieldArticleNumber Field = iota
	FieldNameEN
	FieldNameAR
	FieldDescriptionEN
	FieldDescriptionAR
	FieldPrice
	FieldCategory
	FieldSubcategory
	FieldSizes
	FieldStock
	FieldImages
	FieldIsNew
	FieldFeatured
)

var fieldNames = map[Field]string{
	FieldArticleNumber: "articleNumber",
	FieldNameEN:        "nameEn",
	FieldNameAR:        "nameAr",
	FieldDescriptionEN: "descriptionEn",
	FieldDescriptionAR: "descriptionAr",
	FieldPrice:         "price",
	FieldCategory:      "category",
	FieldSubcategory:   "subcategory",
	FieldSizes:         "sizes",
	FieldStock:         "stock",
	FieldImages:        "images",
	FieldIsNew:         "isNew",
	FieldFeatured:      "featured",
}

func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// FieldAliases lists the column names accepted for one field, highest
// priority first.
type FieldAliases struct {
	Field   Field
	Aliases []string
}

// minContainsLen is the shortest alias that may match by containment.
// Shorter aliases such as "Q" only match a column with exactly that name.
const minContainsLen = 3

// DefaultAliases covers the column spellings produced by the supplier
// exports and the download template.
var DefaultAliases = []FieldAliases{
	{FieldArticleNumber, []string{"articleNumber", "Article", "article", "Article Number", "ArticleNumber", "SKU", "sku", "Code", "code", "EAN Code", "EAN"}},
	{FieldNameEN, []string{"nameEn", "Description", "description", "Name", "name", "Product", "product", "Product Name", "Title", "title"}},
	{FieldNameAR, []string{"nameAr", "Arabic Name", "arabicName", "Name Arabic", "الاسم"}},
	{FieldDescriptionEN, []string{"descriptionEn", "Description En", "Desc", "desc"}},
	{FieldDescriptionAR, []string{"descriptionAr", "Description Ar", "الوصف"}},
	{FieldPrice, []string{"price", "Price", "Final Price", "FinalPrice", "final price", "Cost", "cost", "السعر"}},
	{FieldCategory, []string{"category", "Category", "cat", "القسم"}},
	{FieldSubcategory, []string{"subcategory", "Subcategory", "sub", "Sub Category", "القسم الفرعي"}},
	{FieldSizes, []string{"sizes", "Sizes", "Size", "size", "المقاسات"}},
	{FieldStock, []string{"stock", "Stock", "Q", "Qty", "Quantity", "quantity", "المخزون"}},
	{FieldImages, []string{"images", "Images", "Image", "image", "Photo", "photo", "الصور"}},
	{FieldIsNew, []string{"isNew", "New", "new", "جديد"}},
	{FieldFeatured, []string{"featured", "Featured", "مميز"}},
}

// resolver maps the logical fields of one row to cell values.
type resolver struct {
	table   []FieldAliases
	row     Row
	claimed map[string]bool
}

// newResolver prepares alias lookup for row. Columns whose name is an exact
// alias of any field are claimed by that field and never picked up by
// containment, so "Subcategory" cannot leak into category.
func newResolver(table []FieldAliases, row Row) *resolver {
	claimed := make(map[string]bool)
	for _, col := range row.Columns {
		for _, fa := range table {
			for _, alias := range fa.Aliases {
				if strings.EqualFold(col, alias) {
					claimed[col] = true
				}
			}
		}
	}
	return &resolver{table: table, row: row, claimed: claimed}
}

// Get returns the first non-empty value for f. Every alias is tried as an
// exact case-insensitive column name before any alias is tried as a
// substring of a column name.
func (r *resolver) Get(f Field) string {
	aliases := r.aliasesFor(f)

	for _, alias := range aliases {
		for _, col := range r.row.Columns {
			if strings.EqualFold(col, alias) {
				if v := r.row.Value(col); v != "" {
					return v
				}
			}
		}
	}

	for _, alias := range aliases {
		if utf8.RuneCountInString(alias) < minContainsLen {
			continue
		}
		needle := strings.ToLower(alias)
		for _, col := range r.row.Columns {
			if r.claimed[col] || !strings.Contains(strings.ToLower(col), needle) {
				continue
			}
			if v := r.row.Value(col); v != "" {
				return v
			}
		}
	}
	return ""
}

func (r *resolver) aliasesFor(f Field) []string {
	for _, fa := range r.table {
		if fa.Field == f {
			return fa.Aliases
		}
	}
	return nil
}
