package order

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// FormValues mirrors the create/edit form: the order header, the client
// sub-record and the primary line item. Extra items live beside it in the
// session. The struct is comparable so dirty checks are plain equality.
type FormValues struct {
	OrderID     uuid.UUID
	ChannelID   uuid.UUID
	Code        string
	State       string
	Client      ClientInfo
	ItemID      uuid.UUID
	SKU         string
	Product     string
	Quantity    int
	Price       float64
	Freight     float64
	GuideNumber string
	CarrierID   uuid.UUID
}

// ItemInput is one extra line item being edited (item 2..n of the order).
type ItemInput struct {
	SKU      string
	Product  string
	Quantity int
	Price    float64
	Freight  float64
}

type editSnapshot struct {
	form  FormValues
	extra []ItemInput
}

// EditSession bounds the lifetime of one create/edit form and guarantees no
// silent data loss. It captures a snapshot at open time, tracks dirtiness
// against it, and on cancel either closes silently or asks for confirmation
// and rolls back. At most one session is open at a time.
type EditSession struct {
	mu        sync.Mutex
	store     OrderStore
	view      *LiveView
	logger    apt.Logger
	open      bool
	editing   bool
	form      FormValues
	extra     []ItemInput
	snapshot  editSnapshot
	committed bool
}

func NewEditSession(store OrderStore, view *LiveView, logger apt.Logger) *EditSession {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &EditSession{
		store:  store,
		view:   view,
		logger: logger,
	}
}

// OpenNew starts a create session with default values and snapshots them.
func (s *EditSession) OpenNew() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrSessionOpen
	}
	s.form = FormValues{
		State:    StateNew,
		Quantity: 1,
	}
	s.extra = []ItemInput{}
	s.snapshot = editSnapshot{form: s.form, extra: copyItems(s.extra)}
	s.open = true
	s.editing = false
	s.committed = false
	return nil
}

// Open starts an edit session for an existing aggregate: the header and the
// first line item populate the form, the remaining items become the extra
// list, and the whole thing is snapshotted for later dirty checks.
func (s *EditSession) Open(agg *OrderAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrSessionOpen
	}

	form := FormValues{
		OrderID:     agg.ID,
		ChannelID:   agg.ChannelID,
		Code:        agg.Code,
		State:       agg.State,
		Client:      agg.Client,
		GuideNumber: agg.GuideNumber,
		CarrierID:   agg.CarrierID,
		Quantity:    1,
	}
	if form.State == "" {
		form.State = StateNew
	}
	if len(agg.Items) > 0 {
		first := agg.Items[0]
		form.ItemID = first.ID
		form.SKU = first.SKU
		form.Product = first.Product
		form.Quantity = first.Quantity
		form.Price = first.Price
		form.Freight = first.Freight
	}

	extra := []ItemInput{}
	if len(agg.Items) > 1 {
		for _, it := range agg.Items[1:] {
			extra = append(extra, ItemInput{
				SKU:      it.SKU,
				Product:  it.Product,
				Quantity: it.Quantity,
				Price:    it.Price,
				Freight:  it.Freight,
			})
		}
	}

	s.form = form
	s.extra = extra
	s.snapshot = editSnapshot{form: form, extra: copyItems(extra)}
	s.open = true
	s.editing = true
	s.committed = false
	return nil
}

func (s *EditSession) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *EditSession) Form() FormValues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *EditSession) SetForm(f FormValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoSession
	}
	s.form = f
	return nil
}

func (s *EditSession) ExtraItems() []ItemInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.extra)
}

func (s *EditSession) AddExtraItem() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoSession
	}
	s.extra = append(s.extra, ItemInput{Quantity: 1})
	return nil
}

func (s *EditSession) UpdateExtraItem(index int, item ItemInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoSession
	}
	if index < 0 || index >= len(s.extra) {
		return ErrNotFound
	}
	s.extra[index] = item
	return nil
}

func (s *EditSession) RemoveExtraItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrNoSession
	}
	if index < 0 || index >= len(s.extra) {
		return ErrNotFound
	}
	s.extra = append(s.extra[:index], s.extra[index+1:]...)
	return nil
}

// IsDirty reports whether the form or the extra-item list differs from the
// snapshot taken at open time. The item comparison is order-sensitive.
func (s *EditSession) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *EditSession) dirtyLocked() bool {
	if s.form != s.snapshot.form {
		return true
	}
	if len(s.extra) != len(s.snapshot.extra) {
		return true
	}
	for i := range s.extra {
		if s.extra[i] != s.snapshot.extra[i] {
			return true
		}
	}
	return false
}

// Close ends the session. A just-committed session closes silently; a clean
// session closes silently; a dirty session asks confirmDiscard and, on
// confirmation, rolls the form and extra items back to the snapshot before
// closing. On refusal the session stays open untouched. Returns whether the
// session was closed.
func (s *EditSession) Close(confirmDiscard func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return true
	}
	if !s.committed && s.dirtyLocked() {
		if confirmDiscard == nil || !confirmDiscard() {
			return false
		}
		s.form = s.snapshot.form
		s.extra = copyItems(s.snapshot.extra)
	}

	s.open = false
	s.editing = false
	s.committed = false
	s.snapshot = editSnapshot{}
	return true
}

// Submit validates the form, asks confirmSave, merges the primary item with
// the extra list (primary first, blank extras dropped) and calls the remote
// create or update procedure. On success it marks the session committed, so
// the next Close skips the dirty prompt, and refreshes the live view. On a
// remote failure the session stays open and dirty, untouched.
func (s *EditSession) Submit(ctx context.Context, user string, confirmSave func() bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrNoSession
	}
	if err := s.form.Validate(); err != nil {
		return err
	}
	if confirmSave != nil && !confirmSave() {
		return nil
	}

	items := buildItems(s.form, s.extra)

	if s.editing {
		err := s.store.Update(ctx, UpdateParams{
			OrderID:     s.form.OrderID,
			ChannelID:   s.form.ChannelID,
			Code:        s.form.Code,
			State:       s.form.State,
			Client:      s.form.Client,
			Items:       items,
			GuideNumber: s.form.GuideNumber,
			CarrierID:   s.form.CarrierID,
			User:        user,
		})
		if err != nil {
			return err
		}
	} else {
		result, err := s.store.Create(ctx, CreateParams{
			ChannelID:   s.form.ChannelID,
			Code:        s.form.Code,
			Client:      s.form.Client,
			Items:       items,
			GuideNumber: s.form.GuideNumber,
			CarrierID:   s.form.CarrierID,
			User:        user,
		})
		if err != nil {
			return err
		}
		s.form.OrderID = result.OrderID
	}

	s.committed = true

	if s.view != nil {
		if err := s.view.Refresh(ctx); err != nil {
			s.logger.Error("view refresh after commit failed", "error", err)
		}
	}
	return nil
}

// buildItems merges the primary form item with the extra list into one
// ordered set. Extras with neither SKU nor product are dropped.
func buildItems(form FormValues, extra []ItemInput) []LineItem {
	items := []LineItem{{
		ID:       form.ItemID,
		SKU:      form.SKU,
		Product:  form.Product,
		Quantity: atLeastOne(form.Quantity),
		Price:    form.Price,
		Freight:  form.Freight,
	}}
	for _, it := range extra {
		if it.SKU == "" && it.Product == "" {
			continue
		}
		items = append(items, LineItem{
			SKU:      it.SKU,
			Product:  it.Product,
			Quantity: atLeastOne(it.Quantity),
			Price:    it.Price,
			Freight:  it.Freight,
		})
	}
	return items
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func copyItems(items []ItemInput) []ItemInput {
	out := make([]ItemInput, len(items))
	copy(out, items)
	return out
}
