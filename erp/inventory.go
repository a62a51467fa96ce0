package erp

import "github.com/unkn0wn-root/entsync"

type InventoryItem struct {
	ID         string
	ProductID  string
	Warehouse  string
	Quantity   float64
	RowVersion int64
}

func (i InventoryItem) RecordID() string { return i.ID }
func (i InventoryItem) Version() int64   { return i.RowVersion }
func (i InventoryItem) WithVersion(v int64) InventoryItem {
	i.RowVersion = v
	return i
}

type inventoryWire struct {
	ID         string   `json:"id"`
	ProductID  string   `json:"product_id"`
	Warehouse  *string  `json:"warehouse"`
	Quantity   *float64 `json:"quantity"`
	RowVersion int64    `json:"row_version"`
}

func inventoryMapping() entsync.Mapping[InventoryItem, inventoryWire] {
	return entsync.Mapping[InventoryItem, inventoryWire]{
		FromWire: func(w inventoryWire) InventoryItem {
			return InventoryItem{
				ID:         w.ID,
				ProductID:  w.ProductID,
				Warehouse:  strOr(w.Warehouse, DefaultWarehouse),
				Quantity:   f64(w.Quantity),
				RowVersion: w.RowVersion,
			}
		},
		ToWire: func(i InventoryItem) inventoryWire {
			wh := i.Warehouse
			if wh == "" {
				wh = DefaultWarehouse
			}
			return inventoryWire{
				ID:         i.ID,
				ProductID:  i.ProductID,
				Warehouse:  &wh,
				Quantity:   f64Ptr(i.Quantity),
				RowVersion: i.RowVersion,
			}
		},
	}
}
