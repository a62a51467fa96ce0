package erp

import "github.com/unkn0wn-root/entsync"

type Customer struct {
	ID         string
	Code       string // legacy display code shown in pickers
	Name       string
	Email      string
	Phone      string
	Address    string
	Notes      string
	RowVersion int64
}

func (c Customer) RecordID() string { return c.ID }
func (c Customer) Version() int64   { return c.RowVersion }
func (c Customer) WithVersion(v int64) Customer {
	c.RowVersion = v
	return c
}

type customerWire struct {
	ID         string  `json:"id"`
	Code       *string `json:"code"`
	Name       string  `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	Notes      *string `json:"notes"`
	RowVersion int64   `json:"row_version"`
}

func customerMapping() entsync.Mapping[Customer, customerWire] {
	return entsync.Mapping[Customer, customerWire]{
		FromWire: func(w customerWire) Customer {
			return Customer{
				ID:         w.ID,
				Code:       strOr(w.Code, ""),
				Name:       w.Name,
				Email:      strOr(w.Email, ""),
				Phone:      strOr(w.Phone, ""),
				Address:    strOr(w.Address, ""),
				Notes:      strOr(w.Notes, ""),
				RowVersion: w.RowVersion,
			}
		},
		ToWire: func(c Customer) customerWire {
			return customerWire{
				ID:         c.ID,
				Code:       strPtr(c.Code),
				Name:       c.Name,
				Email:      strPtr(c.Email),
				Phone:      strPtr(c.Phone),
				Address:    strPtr(c.Address),
				Notes:      strPtr(c.Notes),
				RowVersion: c.RowVersion,
			}
		},
	}
}
