package erp

import (
	"time"

	"github.com/unkn0wn-root/entsync"
)

type Document struct {
	ID         string
	Kind       string // e.g. "invoice", "delivery_note"
	Number     string
	PartnerID  string
	IssuedAt   time.Time // zero when the server has no issue date yet
	Total      float64
	RowVersion int64
}

func (d Document) RecordID() string { return d.ID }
func (d Document) Version() int64   { return d.RowVersion }
func (d Document) WithVersion(v int64) Document {
	d.RowVersion = v
	return d
}

type documentWire struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Number     string     `json:"number"`
	PartnerID  *string    `json:"partner_id"`
	IssuedAt   *time.Time `json:"issued_at"`
	Total      *float64   `json:"total"`
	RowVersion int64      `json:"row_version"`
}

func documentMapping() entsync.Mapping[Document, documentWire] {
	return entsync.Mapping[Document, documentWire]{
		FromWire: func(w documentWire) Document {
			var issued time.Time
			if w.IssuedAt != nil {
				issued = *w.IssuedAt
			}
			return Document{
				ID:         w.ID,
				Kind:       w.Kind,
				Number:     w.Number,
				PartnerID:  strOr(w.PartnerID, ""),
				IssuedAt:   issued,
				Total:      f64(w.Total),
				RowVersion: w.RowVersion,
			}
		},
		ToWire: func(d Document) documentWire {
			return documentWire{
				ID:         d.ID,
				Kind:       d.Kind,
				Number:     d.Number,
				PartnerID:  strPtr(d.PartnerID),
				IssuedAt:   timePtr(d.IssuedAt),
				Total:      f64Ptr(d.Total),
				RowVersion: d.RowVersion,
			}
		},
	}
}
