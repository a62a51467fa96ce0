package erp

import "github.com/unkn0wn-root/entsync"

type Order struct {
	ID         string
	Number     string
	CustomerID string
	Status     string
	Total      float64
	RowVersion int64
}

func (o Order) RecordID() string { return o.ID }
func (o Order) Version() int64   { return o.RowVersion }
func (o Order) WithVersion(v int64) Order {
	o.RowVersion = v
	return o
}

type orderWire struct {
	ID         string   `json:"id"`
	Number     string   `json:"number"`
	CustomerID *string  `json:"customer_id"`
	Status     *string  `json:"status"`
	Total      *float64 `json:"total"`
	RowVersion int64    `json:"row_version"`
}

func orderMapping() entsync.Mapping[Order, orderWire] {
	return entsync.Mapping[Order, orderWire]{
		FromWire: func(w orderWire) Order {
			return Order{
				ID:         w.ID,
				Number:     w.Number,
				CustomerID: strOr(w.CustomerID, ""),
				Status:     strOr(w.Status, DefaultStatus),
				Total:      f64(w.Total),
				RowVersion: w.RowVersion,
			}
		},
		ToWire: func(o Order) orderWire {
			status := o.Status
			if status == "" {
				status = DefaultStatus
			}
			return orderWire{
				ID:         o.ID,
				Number:     o.Number,
				CustomerID: strPtr(o.CustomerID),
				Status:     &status,
				Total:      f64Ptr(o.Total),
				RowVersion: o.RowVersion,
			}
		},
	}
}
