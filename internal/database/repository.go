package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"
)

// TableStore persists the whole waitlist table. Load and Save always move the full table;
// implementations must not retain references to tables passed in or handed out.
type TableStore interface {
	Load(ctx context.Context) (entity.WaitlistTable, error)
	Save(ctx context.Context, table entity.WaitlistTable) error
}

// UpdateLoader is implemented by stores whose Load may fall back to cached or empty data.
// LoadForUpdate returns only a table confirmed by the backend, or an error, so a
// read-modify-write never saves over data it could not read.
type UpdateLoader interface {
	LoadForUpdate(ctx context.Context) (entity.WaitlistTable, error)
}

// DocumentClient reads and replaces the table kept as a single document on a remote service.
// Fetch returns entity.ErrDocumentNotFound when the document does not exist yet and
// entity.ErrRateLimited when the service throttles the caller.
type DocumentClient interface {
	Fetch(ctx context.Context) (entity.WaitlistTable, error)
	Replace(ctx context.Context, table entity.WaitlistTable) error
}

// decodeTable parses the persisted JSON layout. An empty or null document is an empty table.
func decodeTable(data []byte) (entity.WaitlistTable, error) {
	table := entity.WaitlistTable{}
	if len(bytes.TrimSpace(data)) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnexpectedBackend, err)
	}
	if table == nil {
		table = entity.WaitlistTable{}
	}
	return table, nil
}
