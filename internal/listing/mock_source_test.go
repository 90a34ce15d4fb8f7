package listing_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/resource"
)

// MockSource is an in-memory category backend.
type MockSource struct {
	mu         sync.Mutex
	records    []resource.Category
	nextID     int
	shouldFail bool
	failError  error

	// gate, when set, holds List calls until it is closed or the context ends
	gate chan struct{}
	// override, when set, replaces the computed page
	override *resource.Page[resource.Category]

	importResult resource.ImportResult
	importRows   []resource.Category

	listCalls       int
	deleteCalls     int
	bulkDeleteCalls int
	importCalls     int
	lastQuery       resource.Query
	lastBulkIDs     []resource.ID
}

func NewMockSource(n int) *MockSource {
	m := &MockSource{}
	for i := 0; i < n; i++ {
		m.add(resource.Category{Name: fmt.Sprintf("Category %02d", i+1)})
	}
	return m
}

func (m *MockSource) add(c resource.Category) resource.Category {
	m.nextID++
	c.ID = resource.ID(fmt.Sprint(m.nextID))
	m.records = append(m.records, c)
	return c
}

func (m *MockSource) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

func (m *MockSource) SetGate(gate chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = gate
}

func (m *MockSource) SetOverride(page *resource.Page[resource.Category]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override = page
}

func (m *MockSource) SetUsage(id resource.ID, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].AssetCount = count
		}
	}
}

func (m *MockSource) Calls() (list, del, bulk, imp int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.deleteCalls, m.bulkDeleteCalls, m.importCalls
}

func (m *MockSource) LastQuery() resource.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

func (m *MockSource) List(ctx context.Context, q resource.Query) (resource.Page[resource.Category], error) {
	m.mu.Lock()
	m.listCalls++
	m.lastQuery = q.Clone()
	gate := m.gate
	m.gate = nil
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return resource.Page[resource.Category]{}, internal.NewNetworkError("Request cancelled", ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return resource.Page[resource.Category]{}, m.failError
	}
	if m.override != nil {
		return *m.override, nil
	}

	var matched []resource.Category
	for _, r := range m.records {
		if q.Search == "" || strings.Contains(strings.ToLower(r.Name), strings.ToLower(q.Search)) {
			matched = append(matched, r)
		}
	}
	if q.SortColumn == "name" {
		sort.SliceStable(matched, func(i, j int) bool {
			if q.SortDirection == resource.SortDesc {
				return matched[i].Name > matched[j].Name
			}
			return matched[i].Name < matched[j].Name
		})
	}

	p := resource.NewPagination(q.Page, q.PageSize, len(matched))
	data := []resource.Category{}
	if p.StartRecord > 0 {
		data = append(data, matched[p.StartRecord-1:p.EndRecord]...)
	}
	return resource.Page[resource.Category]{Data: data, Pagination: p}, nil
}

func (m *MockSource) Delete(_ context.Context, id resource.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.shouldFail {
		return m.failError
	}
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return internal.NewHTTPError(404, "Record not found")
}

func (m *MockSource) BulkDelete(_ context.Context, ids []resource.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkDeleteCalls++
	m.lastBulkIDs = append([]resource.ID(nil), ids...)
	if m.shouldFail {
		return m.failError
	}
	drop := map[resource.ID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.records[:0]
	for _, r := range m.records {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *MockSource) Import(_ context.Context, _ string, src io.Reader) (resource.ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.importCalls++
	if m.shouldFail {
		return resource.ImportResult{}, m.failError
	}
	_, _ = io.Copy(io.Discard, src)
	for _, r := range m.importRows {
		m.add(r)
	}
	return m.importResult, nil
}

func (m *MockSource) Export(_ context.Context, _ string, q resource.Query, w io.Writer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return 0, m.failError
	}
	m.lastQuery = q.Clone()
	var buf bytes.Buffer
	buf.WriteString("id,name\n")
	for _, r := range m.records {
		fmt.Fprintf(&buf, "%s,%s\n", r.ID, r.Name)
	}
	return io.Copy(w, &buf)
}

var errBoom = errors.New("boom")

// authFunc adapts a function to listing.Authorizer.
type authFunc func(ctx context.Context) error

func (f authFunc) Authorized(ctx context.Context) error { return f(ctx) }
