package order

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu          sync.Mutex
	PublishFunc func(ctx context.Context, topic string, msg []byte) error
	published   []string
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, topic)
	return nil
}

func (m *MockPublisher) PublishedTopics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.published))
	copy(out, m.published)
	return out
}

// MockSubscriber is a mock implementation of events.Subscriber for testing
type MockSubscriber struct {
	mu            sync.Mutex
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
	handlers      map[string]events.HandlerFunc
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{
		handlers: make(map[string]events.HandlerFunc),
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Trigger(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	handler := m.handlers[topic]
	m.mu.Unlock()
	if handler == nil {
		return nil
	}
	return handler(ctx, msg)
}

func (m *MockSubscriber) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.handlers))
	for topic := range m.handlers {
		out = append(out, topic)
	}
	return out
}

// MockRowFetcher is a mock implementation of RowFetcher for testing
type MockRowFetcher struct {
	mu           sync.Mutex
	FetchAllFunc func(ctx context.Context) ([]FlatRow, error)
	rows         []FlatRow
	calls        int
}

func NewMockRowFetcher(rows []FlatRow) *MockRowFetcher {
	return &MockRowFetcher{rows: rows}
}

func (m *MockRowFetcher) FetchAll(ctx context.Context) ([]FlatRow, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows, nil
}

func (m *MockRowFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockOrderStore is a mock implementation of OrderStore for testing
type MockOrderStore struct {
	mu             sync.RWMutex
	rows           []FlatRow
	codes          map[string]bool
	created        []CreateParams
	updated        []UpdateParams
	FetchAllFunc   func(ctx context.Context) ([]FlatRow, error)
	CreateFunc     func(ctx context.Context, p CreateParams) (CreateResult, error)
	UpdateFunc     func(ctx context.Context, p UpdateParams) error
	SoftDeleteFunc func(ctx context.Context, orderID uuid.UUID, user string) error
	RestoreFunc    func(ctx context.Context, orderID uuid.UUID, user string) error
	DeleteItemFunc func(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error)
	HardDeleteFunc func(ctx context.Context, orderID uuid.UUID) error
	ListCodesFunc  func(ctx context.Context) ([]string, error)
}

func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		codes: make(map[string]bool),
	}
}

func (m *MockOrderStore) FetchAll(ctx context.Context) ([]FlatRow, error) {
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows, nil
}

func (m *MockOrderStore) Create(ctx context.Context, p CreateParams) (CreateResult, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes[p.Code] {
		return CreateResult{}, ErrDuplicateCode
	}
	m.codes[p.Code] = true
	m.created = append(m.created, p)
	itemIDs := make([]uuid.UUID, len(p.Items))
	for i := range itemIDs {
		itemIDs[i] = uuid.New()
	}
	return CreateResult{OrderID: uuid.New(), ItemIDs: itemIDs}, nil
}

func (m *MockOrderStore) Update(ctx context.Context, p UpdateParams) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, p)
	return nil
}

func (m *MockOrderStore) SoftDelete(ctx context.Context, orderID uuid.UUID, user string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, orderID, user)
	}
	return nil
}

func (m *MockOrderStore) Restore(ctx context.Context, orderID uuid.UUID, user string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, orderID, user)
	}
	return nil
}

func (m *MockOrderStore) DeleteItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	if m.DeleteItemFunc != nil {
		return m.DeleteItemFunc(ctx, itemID)
	}
	return uuid.New(), nil
}

func (m *MockOrderStore) HardDelete(ctx context.Context, orderID uuid.UUID) error {
	if m.HardDeleteFunc != nil {
		return m.HardDeleteFunc(ctx, orderID)
	}
	return nil
}

func (m *MockOrderStore) ListCodes(ctx context.Context) ([]string, error) {
	if m.ListCodesFunc != nil {
		return m.ListCodesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.codes))
	for code := range m.codes {
		out = append(out, code)
	}
	return out, nil
}

func (m *MockOrderStore) Created() []CreateParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CreateParams, len(m.created))
	copy(out, m.created)
	return out
}

func (m *MockOrderStore) Updated() []UpdateParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UpdateParams, len(m.updated))
	copy(out, m.updated)
	return out
}

func (m *MockOrderStore) SeedCodes(codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		m.codes[c] = true
	}
}

// MockChannelStore is a mock implementation of ChannelStore for testing
type MockChannelStore struct {
	ListFunc func(ctx context.Context) ([]Channel, error)
	channels []Channel
}

func NewMockChannelStore(channels []Channel) *MockChannelStore {
	return &MockChannelStore{channels: channels}
}

func (m *MockChannelStore) List(ctx context.Context) ([]Channel, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.channels, nil
}

// MockCarrierStore is a mock implementation of CarrierStore for testing
type MockCarrierStore struct {
	mu             sync.Mutex
	ListActiveFunc func(ctx context.Context) ([]Carrier, error)
	ListFunc       func(ctx context.Context) ([]Carrier, error)
	CreateFunc     func(ctx context.Context, name string) (Carrier, error)
	carriers       []Carrier
}

func NewMockCarrierStore(carriers []Carrier) *MockCarrierStore {
	return &MockCarrierStore{carriers: carriers}
}

func (m *MockCarrierStore) ListActive(ctx context.Context) ([]Carrier, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Carrier
	for _, c := range m.carriers {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCarrierStore) List(ctx context.Context) ([]Carrier, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carriers, nil
}

func (m *MockCarrierStore) Create(ctx context.Context, name string) (Carrier, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	carrier := Carrier{ID: uuid.New(), Name: name, Active: true}
	m.carriers = append(m.carriers, carrier)
	return carrier, nil
}
