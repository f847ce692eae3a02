package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// ImportRow is one pre-parsed spreadsheet row: order code plus one item and
// optional client fields. Parsing the spreadsheet itself happens upstream;
// this boundary only sees rows.
type ImportRow struct {
	Code             string  `json:"codigo_orden"`
	SKU              string  `json:"sku"`
	Product          string  `json:"producto"`
	Quantity         int     `json:"cantidad"`
	Price            float64 `json:"precio"`
	Freight          float64 `json:"flete"`
	ClientName       string  `json:"cliente_nombre,omitempty"`
	ClientDocument   string  `json:"cliente_documento,omitempty"`
	ClientPhone      string  `json:"cliente_celular,omitempty"`
	ClientDepartment string  `json:"cliente_departamento,omitempty"`
	ClientEmail      string  `json:"cliente_correo,omitempty"`
	ClientAddress    string  `json:"cliente_direccion,omitempty"`
}

func (r ImportRow) client() ClientInfo {
	return ClientInfo{
		Name:       r.ClientName,
		Document:   r.ClientDocument,
		Phone:      r.ClientPhone,
		Department: r.ClientDepartment,
		Email:      r.ClientEmail,
		Address:    r.ClientAddress,
	}
}

type ImportGroup struct {
	Code string
	Rows []ImportRow
}

// GroupImportRows groups rows by order code, preserving the first-seen order
// of codes and the row order within each group.
func GroupImportRows(rows []ImportRow) []ImportGroup {
	index := make(map[string]int, len(rows))
	groups := []ImportGroup{}
	for _, r := range rows {
		i, ok := index[r.Code]
		if !ok {
			i = len(groups)
			index[r.Code] = i
			groups = append(groups, ImportGroup{Code: r.Code})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// HasDuplicateSKU reports whether the group repeats a SKU.
func (g ImportGroup) HasDuplicateSKU() bool {
	seen := make(map[string]bool, len(g.Rows))
	for _, r := range g.Rows {
		if seen[r.SKU] {
			return true
		}
		seen[r.SKU] = true
	}
	return false
}

type ImportSummary struct {
	Created              int `json:"creadas"`
	SkippedExisting      int `json:"omitidas_existentes"`
	RejectedDuplicateSKU int `json:"rechazadas_sku_duplicado"`
}

// Importer turns pre-parsed spreadsheet rows into orders through the remote
// store. Groups whose code already exists are skipped, groups with a repeated
// SKU are rejected, and the first remote failure stops the run.
type Importer struct {
	store  OrderStore
	logger apt.Logger
}

func NewImporter(store OrderStore, logger apt.Logger) *Importer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Importer{store: store, logger: logger}
}

func (im *Importer) Run(ctx context.Context, channelID uuid.UUID, rows []ImportRow, user string) (ImportSummary, error) {
	summary := ImportSummary{}

	if channelID == uuid.Nil {
		return summary, fmt.Errorf("canal_id is required")
	}
	for i, r := range rows {
		if err := validateImportRow(r); err != nil {
			return summary, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	codes, err := im.store.ListCodes(ctx)
	if err != nil {
		return summary, fmt.Errorf("cannot list existing codes: %w", err)
	}
	existing := make(map[string]bool, len(codes))
	for _, c := range codes {
		existing[c] = true
	}

	for _, group := range GroupImportRows(rows) {
		if existing[group.Code] {
			summary.SkippedExisting++
			im.logger.Debug("skipping existing order code", "codigo_orden", group.Code)
			continue
		}
		if group.HasDuplicateSKU() {
			summary.RejectedDuplicateSKU++
			im.logger.Info("rejecting group with duplicate SKU", "codigo_orden", group.Code)
			continue
		}

		items := make([]LineItem, 0, len(group.Rows))
		for _, r := range group.Rows {
			product := r.Product
			if product == "" {
				product = r.SKU
			}
			items = append(items, LineItem{
				SKU:      r.SKU,
				Product:  product,
				Quantity: r.Quantity,
				Price:    r.Price,
				Freight:  r.Freight,
			})
		}

		_, err := im.store.Create(ctx, CreateParams{
			ChannelID: channelID,
			Code:      group.Code,
			Client:    group.Rows[0].client(),
			Items:     items,
			User:      user,
		})
		if err != nil {
			return summary, fmt.Errorf("importing order %s: %w", group.Code, err)
		}
		summary.Created++
	}

	im.logger.Infof("bulk import finished: %d created, %d skipped, %d rejected",
		summary.Created, summary.SkippedExisting, summary.RejectedDuplicateSKU)
	return summary, nil
}

func validateImportRow(r ImportRow) error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("codigo_orden is empty")
	}
	if strings.TrimSpace(r.SKU) == "" {
		return fmt.Errorf("sku is empty")
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("cantidad must be greater than zero")
	}
	if r.Price < 0 {
		return fmt.Errorf("precio cannot be negative")
	}
	if r.Freight < 0 {
		return fmt.Errorf("flete cannot be negative")
	}
	return nil
}
