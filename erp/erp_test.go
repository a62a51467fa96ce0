package erp

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/unkn0wn-root/entsync"
)

func sptr(s string) *string { return &s }
func fp(v float64) *float64 { return &v }

// A fully populated wire record must survive wire -> domain -> wire exactly.
func TestProductMappingRoundTripFull(t *testing.T) {
	m := productMapping()
	w := productWire{
		ID:         "p1",
		SKU:        sptr("SKU-1"),
		Name:       "Widget",
		Unit:       sptr("kg"),
		Price:      fp(9.5),
		Stock:      fp(12),
		RowVersion: 3,
	}
	got := m.ToWire(m.FromWire(w))
	if !reflect.DeepEqual(got, w) {
		t.Fatalf("round trip changed the record:\n got %+v\nwant %+v", got, w)
	}
}

// A minimal record picks up display defaults once; after that the mapping
// is idempotent.
func TestProductMappingDefaultsAndIdempotency(t *testing.T) {
	m := productMapping()
	w := productWire{ID: "p1", Name: "Widget"}

	d := m.FromWire(w)
	if d.Unit != DefaultUnit || d.Price != 0 || d.Stock != 0 || d.SKU != "" {
		t.Fatalf("defaults not applied: %+v", d)
	}

	w2 := m.ToWire(d)
	w3 := m.ToWire(m.FromWire(w2))
	if !reflect.DeepEqual(w2, w3) {
		t.Fatalf("mapping not idempotent:\n first %+v\nsecond %+v", w2, w3)
	}
	if w2.Unit == nil || *w2.Unit != DefaultUnit {
		t.Fatalf("normalized unit lost: %+v", w2)
	}
}

func TestCustomerMappingRoundTrip(t *testing.T) {
	m := customerMapping()
	w := customerWire{
		ID:         "c1",
		Code:       sptr("CUST-1"),
		Name:       "Acme",
		Email:      sptr("office@acme.test"),
		Phone:      sptr("+3612345678"),
		Address:    sptr("1 Main St"),
		Notes:      sptr("priority"),
		RowVersion: 2,
	}
	if got := m.ToWire(m.FromWire(w)); !reflect.DeepEqual(got, w) {
		t.Fatalf("round trip changed the record:\n got %+v\nwant %+v", got, w)
	}

	// nulls stay nulls
	minimal := customerWire{ID: "c2", Name: "Bare"}
	if got := m.ToWire(m.FromWire(minimal)); !reflect.DeepEqual(got, minimal) {
		t.Fatalf("minimal record not stable:\n got %+v\nwant %+v", got, minimal)
	}
}

func TestOrderMappingDefaultsStatus(t *testing.T) {
	m := orderMapping()
	w := orderWire{ID: "o1", Number: "SO-1"}

	d := m.FromWire(w)
	if d.Status != DefaultStatus {
		t.Fatalf("status default not applied: %+v", d)
	}
	w2 := m.ToWire(d)
	if w2.Status == nil || *w2.Status != DefaultStatus {
		t.Fatalf("normalized status lost: %+v", w2)
	}
	if got := m.ToWire(m.FromWire(w2)); !reflect.DeepEqual(got, w2) {
		t.Fatalf("mapping not idempotent:\n first %+v\nsecond %+v", w2, got)
	}
}

func TestDocumentMappingRoundTrip(t *testing.T) {
	m := documentMapping()
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	w := documentWire{
		ID:         "d1",
		Kind:       "invoice",
		Number:     "INV-2024-001",
		PartnerID:  sptr("c1"),
		IssuedAt:   &issued,
		Total:      fp(1250),
		RowVersion: 5,
	}
	if got := m.ToWire(m.FromWire(w)); !reflect.DeepEqual(got, w) {
		t.Fatalf("round trip changed the record:\n got %+v\nwant %+v", got, w)
	}

	// missing issue date round-trips as null, not as the zero time
	minimal := documentWire{ID: "d2", Kind: "invoice", Number: "INV-2"}
	got := m.ToWire(m.FromWire(minimal))
	if got.IssuedAt != nil {
		t.Fatalf("zero issue date must stay null: %+v", got)
	}
	if !reflect.DeepEqual(got, minimal) {
		t.Fatalf("minimal record not stable:\n got %+v\nwant %+v", got, minimal)
	}
}

func TestInventoryMappingDefaultsWarehouse(t *testing.T) {
	m := inventoryMapping()
	w := inventoryWire{ID: "i1", ProductID: "p1", Quantity: fp(4)}

	d := m.FromWire(w)
	if d.Warehouse != DefaultWarehouse || d.Quantity != 4 {
		t.Fatalf("defaults not applied: %+v", d)
	}
	w2 := m.ToWire(d)
	if got := m.ToWire(m.FromWire(w2)); !reflect.DeepEqual(got, w2) {
		t.Fatalf("mapping not idempotent:\n first %+v\nsecond %+v", w2, got)
	}
}

func TestRecordVersionAccessors(t *testing.T) {
	p := Product{ID: "p1", RowVersion: 3}
	if p.RecordID() != "p1" || p.Version() != 3 {
		t.Fatalf("accessors: %+v", p)
	}
	p2 := p.WithVersion(4)
	if p2.RowVersion != 4 || p.RowVersion != 3 {
		t.Fatalf("WithVersion must copy: %+v / %+v", p2, p)
	}
}

func TestOpenWiresAllStores(t *testing.T) {
	cfg := entsync.Config{
		BaseURL:    "http://erp.test",
		StorageDir: t.TempDir(),
	}
	env, err := Open(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if env.Customers == nil || env.Products == nil || env.Orders == nil ||
		env.Documents == nil || env.Inventory == nil {
		t.Fatalf("stores missing: %+v", env)
	}
	if env.Monitor == nil || !env.Monitor.IsOnline() {
		t.Fatalf("monitor must start online")
	}
	if err := env.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenRequiresBaseURL(t *testing.T) {
	if _, err := Open(entsync.Config{StorageDir: t.TempDir()}, nil, nil); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
}
