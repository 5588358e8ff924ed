package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-resource-broker/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PendingDispatchStore persists outstanding dispatches so completions that
// arrive after a process restart still find their request.
type PendingDispatchStore struct {
	db   *bun.DB
	repo repository.Repository[*pendingDispatchRecord]
}

func NewPendingDispatchStore(db *bun.DB) (*PendingDispatchStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*pendingDispatchRecord](db, pendingDispatchHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid pending dispatch repository wiring: %w", err)
		}
	}
	return &PendingDispatchStore{db: db, repo: repo}, nil
}

func (s *PendingDispatchStore) Save(ctx context.Context, pending core.PendingDispatch) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: pending dispatch store is not configured")
	}
	if pending.Token <= 0 {
		return fmt.Errorf("sqlstore: correlation token is required")
	}
	exists, err := s.db.NewSelect().
		Model((*pendingDispatchRecord)(nil)).
		Where("token = ?", pending.Token).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("sqlstore: correlation token %d is already outstanding", pending.Token)
	}
	record := newPendingDispatchRecord(pending, uuid.NewString(), time.Now().UTC())
	_, err = s.repo.Create(ctx, record)
	return err
}

func (s *PendingDispatchStore) Get(ctx context.Context, token int64) (core.PendingDispatch, error) {
	if s == nil || s.repo == nil {
		return core.PendingDispatch{}, fmt.Errorf("sqlstore: pending dispatch store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.SelectBy("token", "=", strconv.FormatInt(token, 10)))
	if err != nil {
		return core.PendingDispatch{}, err
	}
	if len(records) == 0 {
		return core.PendingDispatch{}, fmt.Errorf("sqlstore: %w: %d", core.ErrDispatchNotPending, token)
	}
	return records[0].toDomain(), nil
}

func (s *PendingDispatchStore) UpdateState(ctx context.Context, token int64, state core.DispatchState) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: pending dispatch store is not configured")
	}
	res, err := s.db.NewUpdate().
		Model((*pendingDispatchRecord)(nil)).
		Set("state = ?", string(state)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("sqlstore: %w: %d", core.ErrDispatchNotPending, token)
	}
	return nil
}

// Consume removes and returns the dispatch for token. The read and the delete
// share a transaction so a token is handed out at most once.
func (s *PendingDispatchStore) Consume(ctx context.Context, token int64) (core.PendingDispatch, error) {
	if s == nil || s.db == nil {
		return core.PendingDispatch{}, fmt.Errorf("sqlstore: pending dispatch store is not configured")
	}
	var consumed core.PendingDispatch
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &pendingDispatchRecord{}
		if err := tx.NewSelect().Model(record).Where("token = ?", token).Limit(1).Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("sqlstore: %w: %d", core.ErrDispatchNotPending, token)
			}
			return err
		}
		if _, err := tx.NewDelete().
			Model((*pendingDispatchRecord)(nil)).
			Where("id = ?", record.ID).
			Exec(ctx); err != nil {
			return err
		}
		consumed = record.toDomain()
		return nil
	})
	if err != nil {
		return core.PendingDispatch{}, err
	}
	return consumed, nil
}

// Outstanding lists every dispatch still waiting on the external process,
// oldest first.
func (s *PendingDispatchStore) Outstanding(ctx context.Context) ([]core.PendingDispatch, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: pending dispatch store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.PendingDispatch, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
