package order

import "github.com/google/uuid"

// Aggregate folds a sequence of flat rows into one aggregate per order id.
// Header fields come from the first row seen for each id (all rows sharing an
// id carry identical headers), aggregates keep the first-seen order of ids,
// and line items keep row-encounter order. A row without item fields
// contributes the header only, so zero-item orders end up with an empty item
// slice rather than a synthetic item.
func Aggregate(rows []FlatRow) []*OrderAggregate {
	byID := make(map[uuid.UUID]*OrderAggregate, len(rows))
	out := make([]*OrderAggregate, 0, len(rows))

	for _, row := range rows {
		agg, ok := byID[row.ID]
		if !ok {
			agg = &OrderAggregate{
				ID:          row.ID,
				Code:        row.Code,
				ChannelID:   row.ChannelID,
				State:       row.State,
				Client:      row.Client,
				GuideNumber: row.GuideNumber,
				Carrier:     row.Carrier,
				CarrierID:   row.CarrierID,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
				DeletedAt:   row.DeletedAt,
				Items:       []LineItem{},
			}
			byID[row.ID] = agg
			out = append(out, agg)
		}

		if row.HasItem() {
			agg.Items = append(agg.Items, LineItem{
				ID:       row.ItemID,
				SKU:      row.SKU,
				Product:  row.Product,
				Quantity: row.Quantity,
				Price:    row.Price,
				Freight:  row.Freight,
			})
		}
	}

	return out
}
