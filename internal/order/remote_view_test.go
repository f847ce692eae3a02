package order

import (
	"errors"
	"testing"
)

func TestRehydrateRows(t *testing.T) {
	tests := []struct {
		name     string
		data     interface{}
		wantRows int
		wantErr  error
	}{
		{
			name:     "nilPayloadIsEmptyResult",
			data:     nil,
			wantRows: 0,
		},
		{
			name: "arrayPayload",
			data: []interface{}{
				map[string]interface{}{
					"id":           "550e8400-e29b-41d4-a716-446655440001",
					"codigo_orden": "ORD-1",
					"estado":       StateNew,
					"sku":          "SKU-1",
					"producto":     "Camiseta",
					"cantidad":     float64(2),
				},
				map[string]interface{}{
					"id":           "550e8400-e29b-41d4-a716-446655440002",
					"codigo_orden": "ORD-2",
					"estado":       StateToPack,
				},
			},
			wantRows: 2,
		},
		{
			name:    "objectPayloadIsBadPayload",
			data:    map[string]interface{}{"codigo_orden": "ORD-1"},
			wantErr: ErrBadPayload,
		},
		{
			name:    "scalarPayloadIsBadPayload",
			data:    "ORD-1",
			wantErr: ErrBadPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := rehydrateRows(tt.data)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("rehydrateRows() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("rehydrateRows() unexpected error: %v", err)
			}
			if rows == nil {
				t.Fatal("rehydrateRows() returned nil rows, want non-nil slice")
			}
			if len(rows) != tt.wantRows {
				t.Errorf("rehydrateRows() = %d rows, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestRehydrateRowsDecodesFields(t *testing.T) {
	data := []interface{}{
		map[string]interface{}{
			"id":           "550e8400-e29b-41d4-a716-446655440001",
			"codigo_orden": "ORD-1",
			"estado":       StateNew,
			"cliente":      map[string]interface{}{"nombre": "Ana María"},
			"sku":          "SKU-1",
			"producto":     "Camiseta",
			"cantidad":     float64(2),
			"precio":       float64(35000),
		},
	}

	rows, err := rehydrateRows(data)
	if err != nil {
		t.Fatalf("rehydrateRows() unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rehydrateRows() = %d rows, want 1", len(rows))
	}

	row := rows[0]
	if row.Code != "ORD-1" {
		t.Errorf("Code = %q, want ORD-1", row.Code)
	}
	if row.Client.Name != "Ana María" {
		t.Errorf("Client.Name = %q, want Ana María", row.Client.Name)
	}
	if row.SKU != "SKU-1" || row.Quantity != 2 || row.Price != 35000 {
		t.Errorf("item fields = %s/%d/%v, want SKU-1/2/35000", row.SKU, row.Quantity, row.Price)
	}
}
