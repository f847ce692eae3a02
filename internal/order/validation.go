package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRx = regexp.MustCompile(`^\d+$`)
)

// Validate applies the schema-level field constraints before any remote call.
// These mirror the create/edit form: required channel and code, required
// client name, required primary item, non-negative money fields, email shape
// and numeric-only phone.
func (f FormValues) Validate() error {
	if f.ChannelID == uuid.Nil {
		return fmt.Errorf("canal_id is required")
	}
	if len(strings.TrimSpace(f.Code)) < 2 {
		return fmt.Errorf("codigo_orden is required")
	}
	if f.State == "" {
		return fmt.Errorf("estado is required")
	}
	if !IsSelectableState(f.State) {
		return fmt.Errorf("estado %q is not selectable", f.State)
	}
	if len(strings.TrimSpace(f.Client.Name)) < 2 {
		return fmt.Errorf("cliente.nombre is required")
	}
	if f.Client.Email != "" && !emailRx.MatchString(f.Client.Email) {
		return fmt.Errorf("cliente.correo must be a valid email")
	}
	if f.Client.Phone != "" && !phoneRx.MatchString(f.Client.Phone) {
		return fmt.Errorf("cliente.celular must contain only digits")
	}
	if strings.TrimSpace(f.SKU) == "" {
		return fmt.Errorf("sku is required")
	}
	if len(strings.TrimSpace(f.Product)) < 2 {
		return fmt.Errorf("producto is required")
	}
	if f.Quantity < 1 {
		return fmt.Errorf("cantidad must be at least 1")
	}
	if f.Price < 0 {
		return fmt.Errorf("precio cannot be negative")
	}
	if f.Freight < 0 {
		return fmt.Errorf("flete cannot be negative")
	}
	return nil
}
