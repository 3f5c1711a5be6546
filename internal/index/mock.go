package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/theakash04/termify/internal/entity"
)

// MockService is an in-memory Service for local development and tests.
// Search is a naive term-overlap ranking, good enough to exercise the
// query loop without a running search service.
type MockService struct {
	mu         sync.Mutex
	namespaces map[string]bool
	indexes    map[string]string // serviceName -> namespace
	records    map[string][]entity.ChunkRecord

	// FailSearch makes Search return an error, for degraded-path tests.
	FailSearch bool
}

var _ Service = (*MockService)(nil)

func NewMockService() *MockService {
	return &MockService{
		namespaces: make(map[string]bool),
		indexes:    make(map[string]string),
		records:    make(map[string][]entity.ChunkRecord),
	}
}

func (m *MockService) CreateNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[namespace] = true
	return nil
}

func (m *MockService) CreateCollection(ctx context.Context, namespace, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[namespace] = true
	return nil
}

func (m *MockService) AppendRecords(ctx context.Context, namespace, collection string, records []entity.ChunkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[namespace] = append(m.records[namespace], records...)
	return nil
}

func (m *MockService) CreateSearchIndex(ctx context.Context, namespace, serviceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[serviceName] = namespace
	return nil
}

func (m *MockService) Search(ctx context.Context, namespace, serviceName, query string, limit int) ([]entity.ChunkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSearch {
		return nil, context.DeadlineExceeded
	}

	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		rec   entity.ChunkRecord
		score int
	}
	var matches []scored
	for _, rec := range m.records[namespace] {
		data := strings.ToLower(rec.Data)
		score := 0
		for _, t := range terms {
			if strings.Contains(data, t) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{rec: rec, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]entity.ChunkRecord, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.rec)
	}
	return out, nil
}

func (m *MockService) DropNamespace(ctx context.Context, namespace, serviceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, namespace)
	delete(m.records, namespace)
	delete(m.indexes, serviceName)
	return nil
}

func (m *MockService) Ping(ctx context.Context) error {
	return nil
}

// HasNamespace reports whether the namespace currently exists. Test helper.
func (m *MockService) HasNamespace(namespace string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.namespaces[namespace]
}

// RecordCount returns the number of records stored under a namespace.
// Test helper.
func (m *MockService) RecordCount(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[namespace])
}
