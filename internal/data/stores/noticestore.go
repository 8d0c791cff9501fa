package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/beacon/internal/core/notice"
	"github.com/colonyops/beacon/internal/data/db"
)

// NoticeStore implements notice.Store using SQLite.
type NoticeStore struct {
	db *db.DB
}

var _ notice.Store = (*NoticeStore)(nil)

func NewNoticeStore(database *db.DB) *NoticeStore {
	return &NoticeStore{db: database}
}

// Save persists a notice and returns its generated ID.
func (s *NoticeStore) Save(ctx context.Context, n notice.Notice) (int64, error) {
	id, err := s.db.Queries().InsertNotice(ctx, string(n.Level), n.Message, n.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert notice: %w", err)
	}
	return id, nil
}

// List returns at most limit notices, newest first.
func (s *NoticeStore) List(ctx context.Context, limit int) ([]notice.Notice, error) {
	rows, err := s.db.Queries().ListNotices(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}

	result := make([]notice.Notice, 0, len(rows))
	for _, row := range rows {
		result = append(result, notice.Notice{
			ID:        row.ID,
			Level:     notice.Level(row.Level),
			Message:   row.Message,
			CreatedAt: time.Unix(0, row.CreatedAt),
		})
	}
	return result, nil
}

func (s *NoticeStore) Clear(ctx context.Context) error {
	if err := s.db.Queries().DeleteAllNotices(ctx); err != nil {
		return fmt.Errorf("clear notices: %w", err)
	}
	return nil
}

func (s *NoticeStore) Count(ctx context.Context) (int64, error) {
	n, err := s.db.Queries().CountNotices(ctx)
	if err != nil {
		return 0, fmt.Errorf("count notices: %w", err)
	}
	return n, nil
}
