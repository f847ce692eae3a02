package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
)

// RemoteViewFetcher reads the flattened orders view from a remote read API
// instead of the database adapter. Useful when this service sits behind the
// backend-as-a-service boundary rather than next to it.
type RemoteViewFetcher struct {
	client *apt.ServiceClient
	logger apt.Logger
}

func NewRemoteViewFetcher(client *apt.ServiceClient, logger apt.Logger) *RemoteViewFetcher {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &RemoteViewFetcher{client: client, logger: logger}
}

func (f *RemoteViewFetcher) FetchAll(ctx context.Context) ([]FlatRow, error) {
	if f.client == nil {
		return nil, fmt.Errorf("view client uninitialized")
	}
	resp, err := f.client.List(ctx, "ordenes_vista")
	if err != nil {
		return nil, fmt.Errorf("failed to list ordenes_vista: %w", err)
	}
	return rehydrateRows(resp.Data)
}

// rehydrateRows decodes a generic payload into flat rows. A nil payload is an
// empty result; anything that is not a sequence is ErrBadPayload, never an
// empty success.
func rehydrateRows(data interface{}) ([]FlatRow, error) {
	if data == nil {
		return []FlatRow{}, nil
	}
	if _, ok := data.([]interface{}); !ok {
		return nil, ErrBadPayload
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("cannot re-encode view payload: %w", err)
	}
	var rows []FlatRow
	if err := json.Unmarshal(bytes, &rows); err != nil {
		return nil, fmt.Errorf("cannot decode view rows: %w", err)
	}
	return rows, nil
}
