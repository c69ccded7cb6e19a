package web

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albaseet/catalog/internal/catalog"
	"github.com/albaseet/catalog/internal/config"
	"github.com/albaseet/catalog/internal/core"
	"github.com/albaseet/catalog/internal/observability"
	"github.com/albaseet/catalog/internal/store"
)

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

const testAPIKey = "test-admin-key"

const supplierCSV = "Article,Description,Final Price,Sizes\n" +
	"190981,COURT PADEL X3,\"14,900.00\",\"40:10,41:15\"\n" +
	"190982,,500,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{
			Driver: config.DriverMemory,
		},
		Import: config.ImportConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Rate:   config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, ImportLimit: 10},
		Security: config.SecurityConfig{
			RequireAPIKey: true,
			APIKeys:       []string{testAPIKey},
			EnableCSP:     true,
		},
	}
}

func seed(id, article, name, category string, price float64, createdAt time.Time, sizes ...catalog.SizeStock) catalog.Product {
	return catalog.Product{
		ID: id,
		Draft: catalog.Draft{
			ArticleNumber: article,
			Name:          catalog.LocalizedText{EN: name, AR: name},
			Category:      category,
			Subcategory:   catalog.SubcategoryAccessories,
			Price:         price,
			Sizes:         sizes,
		},
		CreatedAt: createdAt,
	}
}

func defaultSeed() []catalog.Product {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []catalog.Product{
		seed("p1", "100", "Court Padel X3", catalog.CategoryPadel, 430, t.Add(2*time.Hour), catalog.SizeStock{Size: "40", Stock: 3}),
		seed("p2", "200", "Match Football", catalog.CategoryFootball, 120, t.Add(time.Hour), catalog.SizeStock{Size: "5", Stock: 0}),
		seed("p3", "300", "Padel Balls", catalog.CategoryPadel, 35, t, catalog.SizeStock{Size: "One Size", Stock: 40}),
	}
}

func newTestServer(t *testing.T, cfg *config.Config, products ...catalog.Product) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	svc, err := core.NewService(core.Options{
		Repo:        store.NewMemory(products...),
		Limiter:     core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		MaxFileSize: cfg.Import.MaxFileSize,
	})
	require.NoError(t, err)
	return NewServer(svc, cfg, observability.NewMetrics())
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
	}
	if strings.HasPrefix(path, "/api/admin") {
		r.Header.Set("X-API-Key", testAPIKey)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	return w
}

func upload(t *testing.T, s *Server, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/admin/imports", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func productIDs(list productList) []string {
	out := make([]string, len(list.Products))
	for i, p := range list.Products {
		out[i] = p.ID
	}
	return out
}

// ----------------------------------------------------------------------------
// Public API
// ----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListCategories(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string][]catalog.Option](t, w)
	assert.Equal(t, catalog.Categories, got["categories"])
	assert.Equal(t, catalog.Subcategories, got["subcategories"])
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no filters newest first", "", []string{"p1", "p2", "p3"}},
		{"category", "?category=padel", []string{"p1", "p3"}},
		{"search", "?search=court", []string{"p1"}},
		{"price ascending", "?sort=price-asc", []string{"p3", "p2", "p1"}},
		{"min above max", "?min=500&max=100", []string{}},
		{"malformed bounds ignored", "?min=abc&sort=bogus", []string{"p1", "p2", "p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/products"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			list := decode[productList](t, w)
			assert.Equal(t, tt.want, productIDs(list))
			assert.Equal(t, len(tt.want), list.Count)
		})
	}
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	w := do(t, s, http.MethodGet, "/api/products/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "200", decode[catalog.Product](t, w).ArticleNumber)

	w = do(t, s, http.MethodGet, "/api/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PRD001", decode[ErrorResponse](t, w).Code)
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)
	do(t, s, http.MethodGet, "/api/products", nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `catalog_http_requests_total{code="200",method="GET",route="/api/products"}`)
	assert.Contains(t, w.Body.String(), "catalog_products 3")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	s := newTestServer(t, cfg)

	for range 2 {
		assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/categories", nil).Code)
	}
	w := do(t, s, http.MethodGet, "/api/categories", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, w).Code)
}

// ----------------------------------------------------------------------------
// Admin API
// ----------------------------------------------------------------------------

func TestAdmin_RequiresAPIKey(t *testing.T) {
	s := newTestServer(t, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	r.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/admin/stats", nil).Code)
}

func TestCreateProduct(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	draft := catalog.Draft{
		ArticleNumber: "190981",
		Name:          catalog.LocalizedText{EN: "COURT PADEL X3", AR: "كورت بادل X3"},
		Category:      catalog.CategoryPadel,
		Subcategory:   catalog.SubcategoryShoes,
		Price:         430,
		Sizes:         []catalog.SizeStock{{Size: "40", Stock: 10}},
	}
	w := do(t, s, http.MethodPost, "/api/admin/products", draft)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[catalog.Product](t, w)
	assert.NotEmpty(t, created.ID)

	list := decode[productList](t, do(t, s, http.MethodGet, "/api/products", nil))
	assert.Equal(t, created.ID, list.Products[0].ID, "new products come first")
}

func TestCreateProduct_Invalid(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/admin/products", `{"articleNumber":"1","name":{"en":"X"},"price":-1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "VAL001", resp.Code)
	fields := make([]string, len(resp.Fields))
	for i, f := range resp.Fields {
		fields[i] = f.Field
	}
	assert.ElementsMatch(t, []string{"price", "name.ar"}, fields)

	w = do(t, s, http.MethodPost, "/api/admin/products", `{"articleNumber":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VAL002", decode[ErrorResponse](t, w).Code)

	w = do(t, s, http.MethodPost, "/api/admin/products", `{"sku":"1"}`)
	assert.Equal(t, "VAL002", decode[ErrorResponse](t, w).Code)
}

func TestUpdateProduct(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	w := do(t, s, http.MethodPatch, "/api/admin/products/p1", `{"price":399.5,"featured":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decode[catalog.Product](t, w)
	assert.Equal(t, 399.5, p.Price)
	assert.True(t, p.Featured)
	assert.Equal(t, "Court Padel X3", p.Name.EN)

	w = do(t, s, http.MethodPatch, "/api/admin/products/missing", `{"price":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStock(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	w := do(t, s, http.MethodPut, "/api/admin/products/p2/sizes/0", `{"stock":7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 7, decode[catalog.Product](t, w).Sizes[0].Stock)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"index out of range", "/api/admin/products/p2/sizes/3", `{"stock":1}`, http.StatusBadRequest, "PRD002"},
		{"index not a number", "/api/admin/products/p2/sizes/x", `{"stock":1}`, http.StatusBadRequest, "VAL002"},
		{"stock missing", "/api/admin/products/p2/sizes/0", `{}`, http.StatusBadRequest, "VAL001"},
		{"unknown product", "/api/admin/products/nope/sizes/0", `{"stock":1}`, http.StatusNotFound, "PRD001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/admin/products/p1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/products/p1", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/admin/products/p1", nil).Code)
}

func TestStockReports(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)

	low := decode[productList](t, do(t, s, http.MethodGet, "/api/admin/stock/low", nil))
	assert.Equal(t, []string{"p1"}, productIDs(low))

	out := decode[productList](t, do(t, s, http.MethodGet, "/api/admin/stock/out", nil))
	assert.Equal(t, []string{"p2"}, productIDs(out))

	stats := decode[core.Stats](t, do(t, s, http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, 3, stats.Catalog.Products)
	assert.Equal(t, 2, stats.Imports.MaxConcurrent)
}

func TestRefreshProducts(t *testing.T) {
	s := newTestServer(t, nil, defaultSeed()...)
	w := do(t, s, http.MethodPost, "/api/admin/products/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())
}

// ----------------------------------------------------------------------------
// Imports
// ----------------------------------------------------------------------------

func TestImport_PreviewAndCommit(t *testing.T) {
	s := newTestServer(t, nil)

	w := upload(t, s, "supplier.csv", supplierCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[core.ImportPreview](t, w)
	assert.Equal(t, 1, preview.AcceptedCount)
	require.Len(t, preview.Rejected, 1)
	assert.Equal(t, 3, preview.Rejected[0].RowNumber)

	w = do(t, s, http.MethodGet, "/api/admin/imports/"+preview.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/admin/imports/"+preview.ID+"/commit", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[core.ImportCommit](t, w).Inserted)

	list := decode[productList](t, do(t, s, http.MethodGet, "/api/products", nil))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 14900.0, list.Products[0].Price)

	w = do(t, s, http.MethodPost, "/api/admin/imports/"+preview.ID+"/commit", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "IMP002", decode[ErrorResponse](t, w).Code)
}

func TestImport_Discard(t *testing.T) {
	s := newTestServer(t, nil)

	preview := decode[core.ImportPreview](t, upload(t, s, "supplier.csv", supplierCSV))
	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/admin/imports/"+preview.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/admin/imports/"+preview.ID, nil).Code)
}

func TestImport_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 512
	s := newTestServer(t, cfg)

	tests := []struct {
		name     string
		fileName string
		content  string
		status   int
		code     string
	}{
		{"unsupported format", "catalog.pdf", "%PDF-1.4", http.StatusUnsupportedMediaType, "FILE003"},
		{"empty file", "empty.csv", "", http.StatusUnprocessableEntity, "FILE005"},
		{"too large", "big.csv", strings.Repeat("a,b\n", 300), http.StatusRequestEntityTooLarge, "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, s, tt.fileName, tt.content)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
		})
	}
}

func TestImport_NoFile(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/admin/imports", `{"file":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FILE004", decode[ErrorResponse](t, w).Code)
}

func TestDownloadTemplate(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/admin/imports/template?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "albaseet_products_template.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Article,Description,Final Price"))

	w = do(t, s, http.MethodGet, "/api/admin/imports/template", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	w = do(t, s, http.MethodGet, "/api/admin/imports/template?format=pdf", nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestShutdown_NotStarted(t *testing.T) {
	s := newTestServer(t, nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestServe_WaitsForInFlightRequests(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ShutdownTimeout = 5 * time.Second
	s := newTestServer(t, cfg)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.Router().Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusNoContent)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()
	<-entered

	cancel()
	select {
	case err := <-served:
		t.Fatalf("Serve returned with a request in flight: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, http.StatusNoContent, <-status)
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the request finished")
	}
}

func TestRespondJSON_EncodeFailureIsServerError(t *testing.T) {
	bad := defaultSeed()
	bad[0].Price = math.Inf(1)
	s := newTestServer(t, nil, bad...)

	for _, path := range []string{"/api/products", "/api/products/p1"} {
		w := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.NotEmpty(t, w.Body.Bytes(), path)
		assert.Equal(t, "ERR000", decode[ErrorResponse](t, w).Code, path)
	}
}

func TestImport_OutOfRangePriceRejected(t *testing.T) {
	s := newTestServer(t, nil)
	huge := "1" + strings.Repeat("0", 400)

	w := upload(t, s, "supplier.csv", "Article,Description,Final Price\n190981,COURT PADEL X3,"+huge+"\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[core.ImportPreview](t, w)
	assert.Zero(t, preview.AcceptedCount)
	require.Len(t, preview.Rejected, 1)
	assert.Equal(t, []string{"invalid price: " + huge}, preview.Rejected[0].Reasons)

	list := decode[productList](t, do(t, s, http.MethodGet, "/api/products", nil))
	assert.Zero(t, list.Count)
}
