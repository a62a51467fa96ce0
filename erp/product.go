package erp

import "github.com/unkn0wn-root/entsync"

type Product struct {
	ID         string
	SKU        string
	Name       string
	Unit       string  // baseline unit when the server has none
	Price      float64 // zero when unset server-side
	Stock      float64
	RowVersion int64
}

func (p Product) RecordID() string { return p.ID }
func (p Product) Version() int64   { return p.RowVersion }
func (p Product) WithVersion(v int64) Product {
	p.RowVersion = v
	return p
}

type productWire struct {
	ID         string   `json:"id"`
	SKU        *string  `json:"sku"`
	Name       string   `json:"name"`
	Unit       *string  `json:"unit"`
	Price      *float64 `json:"price"`
	Stock      *float64 `json:"stock"`
	RowVersion int64    `json:"row_version"`
}

func productMapping() entsync.Mapping[Product, productWire] {
	return entsync.Mapping[Product, productWire]{
		FromWire: func(w productWire) Product {
			return Product{
				ID:         w.ID,
				SKU:        strOr(w.SKU, ""),
				Name:       w.Name,
				Unit:       strOr(w.Unit, DefaultUnit),
				Price:      f64(w.Price),
				Stock:      f64(w.Stock),
				RowVersion: w.RowVersion,
			}
		},
		ToWire: func(p Product) productWire {
			unit := p.Unit
			if unit == "" {
				unit = DefaultUnit
			}
			return productWire{
				ID:         p.ID,
				SKU:        strPtr(p.SKU),
				Name:       p.Name,
				Unit:       &unit,
				Price:      f64Ptr(p.Price),
				Stock:      f64Ptr(p.Stock),
				RowVersion: p.RowVersion,
			}
		},
	}
}
