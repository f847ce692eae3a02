package order

import "time"

// ExportRow is the flat shape handed to the spreadsheet encoder: one row per
// line item. Orders without items produce no rows.
type ExportRow struct {
	Code     string    `json:"codigo"`
	Client   string    `json:"cliente"`
	Product  string    `json:"producto"`
	Quantity int       `json:"cantidad"`
	Price    float64   `json:"precio"`
	Freight  float64   `json:"flete"`
	State    string    `json:"estado"`
	Date     time.Time `json:"fecha"`
}

// ExportRows flattens aggregates for export, keeping order and item order.
func ExportRows(aggs []*OrderAggregate) []ExportRow {
	rows := []ExportRow{}
	for _, a := range aggs {
		for _, it := range a.Items {
			rows = append(rows, ExportRow{
				Code:     a.Code,
				Client:   a.Client.Name,
				Product:  it.Product,
				Quantity: it.Quantity,
				Price:    it.Price,
				Freight:  it.Freight,
				State:    a.State,
				Date:     a.CreatedAt,
			})
		}
	}
	return rows
}
