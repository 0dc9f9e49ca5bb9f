package historyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
)

const defaultMemoryCap = 200

// MemoryRepository keeps summary history in process memory for tests/dev. Each user
// keeps at most perUserCap records; older ones are dropped.
type MemoryRepository struct {
	mu         sync.RWMutex
	perUserCap int
	records    map[int64][]summarizer.HistoryRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository(perUserCap int) *MemoryRepository {
	if perUserCap <= 0 {
		perUserCap = defaultMemoryCap
	}
	return &MemoryRepository{
		perUserCap: perUserCap,
		records:    make(map[int64][]summarizer.HistoryRecord),
	}
}

// Append implements summarizer.HistoryRepository.
func (r *MemoryRepository) Append(_ context.Context, record summarizer.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.Keywords = append([]string(nil), record.Keywords...)
	list := append(r.records[record.UserID], record)
	if len(list) > r.perUserCap {
		list = list[len(list)-r.perUserCap:]
	}
	r.records[record.UserID] = list
	return nil
}

// ListByUser implements summarizer.HistoryRepository, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID int64, limit int) ([]summarizer.HistoryRecord, error) {
	r.mu.RLock()
	list := append([]summarizer.HistoryRecord(nil), r.records[userID]...)
	r.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

var _ summarizer.HistoryRepository = (*MemoryRepository)(nil)
