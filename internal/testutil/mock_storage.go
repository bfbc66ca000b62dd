// mock_storage.go - In-memory storage implementation for testing
package testutil

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/storage"
)

// MockStorage implements storage.Store in memory
type MockStorage struct {
	mu      sync.RWMutex
	uploads map[string]*models.FileMetadata
	content map[string][]byte
	synced  map[string][]byte

	// PutErr, when set, is returned by every Put
	PutErr error
}

// NewMockStorage creates an empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		uploads: make(map[string]*models.FileMetadata),
		content: make(map[string][]byte),
		synced:  make(map[string][]byte),
	}
}

func (m *MockStorage) SaveUpload(name, contentType string, r io.Reader) (*models.FileMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	meta := &models.FileMetadata{
		FileID:      generateTestID(),
		Filename:    name,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		UploadedAt:  time.Now().UTC(),
	}
	m.uploads[meta.FileID] = meta
	m.content[meta.FileID] = data
	cp := *meta
	return &cp, nil
}

func (m *MockStorage) GetUpload(id string) (*models.FileMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.uploads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	cp := *meta
	return &cp, nil
}

func (m *MockStorage) Put(fileID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return m.PutErr
	}
	m.synced[fileID] = append([]byte(nil), data...)
	return nil
}

func (m *MockStorage) Get(fileID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.synced[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, fileID)
	}
	return append([]byte(nil), data...), nil
}

func (m *MockStorage) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.synced))
	for id := range m.synced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MockStorage) Delete(fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.synced[fileID]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, fileID)
	}
	delete(m.synced, fileID)
	return nil
}

func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.synced)
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// UploadContent returns the bytes stored for an upload
func (m *MockStorage) UploadContent(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.content[id]
	return data, ok
}

// Clear removes everything
func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = make(map[string]*models.FileMetadata)
	m.content = make(map[string][]byte)
	m.synced = make(map[string][]byte)
}

var (
	testIDCounter int
	testIDMutex   sync.Mutex
)

// generateTestID generates a simple test ID
func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
