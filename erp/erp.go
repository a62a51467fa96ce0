// Package erp defines the entity kinds of the host application - customers,
// products, orders, documents and inventory - with their wire/domain
// mappings, and wires one synchronized store per kind from a single Config.
//
// Wire shapes use the server's snake_cased, nullable field names; domain
// shapes keep the legacy-compatible names the UI renders. Mappings are
// total (a null never panics, a default is substituted instead) and
// idempotent: mapping wire -> domain -> wire is stable after the first
// default substitution.
package erp

import "time"

// Entity kind names as they appear in snapshot keys and invalidation
// envelopes.
const (
	EntityCustomer  = "customer"
	EntityProduct   = "product"
	EntityOrder     = "order"
	EntityDocument  = "document"
	EntityInventory = "inventory"
)

// Legacy display defaults substituted for nulls the server may send.
const (
	DefaultUnit      = "pcs"
	DefaultStatus    = "draft"
	DefaultWarehouse = "main"
)

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func f64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// strPtr keeps empty optional strings as wire nulls so a round-trip of a
// minimal record stays stable.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func f64Ptr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
