package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/core"
)

// maxJSONBody caps admin JSON request bodies (1MB).
const maxJSONBody = 1 << 20

// productList is the response for every endpoint returning products.
type productList struct {
	Products []catalog.Product `json:"products"`
	Count    int               `json:"count"`
}

func newProductList(products []catalog.Product) productList {
	if products == nil {
		products = []catalog.Product{}
	}
	return productList{Products: products, Count: len(products)}
}

// decodeJSON reads a single JSON object into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	return nil
}
