package storefront_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"ShopFront/internal/cart"
	"ShopFront/internal/catalog"
	"ShopFront/internal/session"
	"ShopFront/internal/storefront"
)

func newStorefrontTS(t *testing.T) (*httptest.Server, catalog.Store) {
	t.Helper()

	store := catalog.NewMemStore()
	carts := cart.NewService(store, time.Hour)
	sessions := session.NewManager("test-secret", time.Hour)

	h := storefront.NewHandler(
		storefront.Deps{
			Catalog:  store,
			Carts:    carts,
			Sessions: sessions,
			Log:      zap.NewNop(),
		},
		storefront.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "storefront",
			// Registry: nil
		},
	)

	return httptest.NewServer(h), store
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doAPI(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Version", storefront.APIVersion)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func TestAPIVersionGuard(t *testing.T) {
	ts, _ := newStorefrontTS(t)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/products", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing header: status %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/products", nil)
	req.Header.Set("X-API-Version", "9.9")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("wrong version: status %d", resp.StatusCode)
	}
}

func TestHealthEndpointsSkipVersionGuard(t *testing.T) {
	ts, _ := newStorefrontTS(t)
	defer ts.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
	}
}

func TestShoppingFlow(t *testing.T) {
	ts, store := newStorefrontTS(t)
	defer ts.Close()

	c := newClient(t)

	// Create a product.
	resp, raw := doAPI(t, c, http.MethodPost, ts.URL+"/api/products", map[string]any{
		"name":  "Mug",
		"price": 9.99,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: status %d body %s", resp.StatusCode, raw)
	}

	// Add it to the cart twice; quantities accumulate.
	resp, raw = doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": 1,
		"quantity":  1,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add to cart: status %d body %s", resp.StatusCode, raw)
	}

	resp, raw = doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": "1",
		"quantity":  "1",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add to cart with string payload: status %d body %s", resp.StatusCode, raw)
	}

	resp, raw = doAPI(t, c, http.MethodGet, ts.URL+"/api/cart", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view cart: status %d body %s", resp.StatusCode, raw)
	}

	var v cart.View
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(v.Items) != 1 || v.Items[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", v)
	}
	if v.Total != 19.98 {
		t.Fatalf("total %v want 19.98", v.Total)
	}

	// Deleting the product empties the view.
	resp, raw = doAPI(t, c, http.MethodDelete, ts.URL+"/api/products/1", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete product: status %d body %s", resp.StatusCode, raw)
	}

	resp, raw = doAPI(t, c, http.MethodGet, ts.URL+"/api/cart", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view cart: status %d body %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal view: %v", err)
	}
	if len(v.Items) != 0 || v.Total != 0 {
		t.Fatalf("expected empty view after product deletion, got %+v", v)
	}

	// Catalog no longer resolves the product either.
	if _, ok, _ := store.Get(context.Background(), 1); ok {
		t.Fatal("product still in catalog store")
	}
}

func TestCartQuantityCoercion(t *testing.T) {
	ts, _ := newStorefrontTS(t)
	defer ts.Close()

	c := newClient(t)

	doAPI(t, c, http.MethodPost, ts.URL+"/api/products", map[string]any{"name": "Mug", "price": 9.99}, nil)

	// Missing and non-numeric quantities default to 1.
	resp, raw := doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{"productId": 1}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("missing quantity: status %d body %s", resp.StatusCode, raw)
	}

	resp, raw = doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": 1,
		"quantity":  "lots",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("non-numeric quantity: status %d body %s", resp.StatusCode, raw)
	}

	var v cart.View
	resp, raw = doAPI(t, c, http.MethodGet, ts.URL+"/api/cart", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(v.Items) != 1 || v.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2 after two defaulted adds, got %+v", v)
	}

	// A quantity too large to store is rejected at the API edge.
	resp, _ = doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{
		"productId": 1,
		"quantity":  1e19,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("overflowing quantity: status %d", resp.StatusCode)
	}

	// PATCH requires a numeric quantity.
	resp, _ = doAPI(t, c, http.MethodPatch, ts.URL+"/api/cart/1", map[string]any{}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("absent quantity: status %d", resp.StatusCode)
	}

	resp, _ = doAPI(t, c, http.MethodPatch, ts.URL+"/api/cart/1", map[string]any{"quantity": -2}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative quantity: status %d", resp.StatusCode)
	}

	// Zero removes the line.
	resp, _ = doAPI(t, c, http.MethodPatch, ts.URL+"/api/cart/1", map[string]any{"quantity": 0}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("zero quantity: status %d", resp.StatusCode)
	}

	resp, _ = doAPI(t, c, http.MethodPatch, ts.URL+"/api/cart/1", map[string]any{"quantity": 3}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("set on removed line: status %d", resp.StatusCode)
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	ts, _ := newStorefrontTS(t)
	defer ts.Close()

	c := newClient(t)

	resp, _ := doAPI(t, c, http.MethodPost, ts.URL+"/api/cart", map[string]any{"productId": 42}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: status %d", resp.StatusCode)
	}
}

func TestSessionsGetSeparateCarts(t *testing.T) {
	ts, _ := newStorefrontTS(t)
	defer ts.Close()

	alice := newClient(t)
	bob := newClient(t)

	doAPI(t, alice, http.MethodPost, ts.URL+"/api/products", map[string]any{"name": "Mug", "price": 9.99}, nil)
	doAPI(t, alice, http.MethodPost, ts.URL+"/api/cart", map[string]any{"productId": 1, "quantity": 2}, nil)

	var v cart.View
	_, raw := doAPI(t, bob, http.MethodGet, ts.URL+"/api/cart", nil, nil)
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(v.Items) != 0 {
		t.Fatalf("bob sees alice's cart: %+v", v)
	}
}
