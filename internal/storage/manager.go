package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

// ErrNotFound is returned for unknown file ids.
var ErrNotFound = errors.New("file not found")

// Store holds uploaded files and the data clients sync for them.
type Store interface {
	SaveUpload(name, contentType string, r io.Reader) (*models.FileMetadata, error)
	GetUpload(id string) (*models.FileMetadata, error)
	Put(fileID string, data []byte) error
	Get(fileID string) ([]byte, error)
	List() []string
	Delete(fileID string) error
	Count() int
}

const (
	filesDir  = "files"
	syncedDir = "synced"
	metaExt   = ".meta.json"
	dataExt   = ".json"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// LocalStore implements Store on the local filesystem. Uploaded files live
// under files/<id> with a metadata sidecar, synced data under synced/<fileId>.json.
type LocalStore struct {
	mu      sync.RWMutex
	baseDir string
	uploads map[string]*models.FileMetadata
	synced  map[string]struct{}
}

// NewLocalStore creates the directories under baseDir and indexes whatever is
// already there.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	for _, sub := range []string{filesDir, syncedDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	s := &LocalStore{
		baseDir: baseDir,
		uploads: make(map[string]*models.FileMetadata),
		synced:  make(map[string]struct{}),
	}
	if err := s.reindex(); err != nil {
		return nil, err
	}
	fmt.Printf("[SyncStore] Indexed %d uploads and %d synced files in %s\n", len(s.uploads), len(s.synced), baseDir)
	return s, nil
}

func (s *LocalStore) reindex() error {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, filesDir))
	if err != nil {
		return fmt.Errorf("reading uploads: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metaExt) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.baseDir, filesDir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading upload metadata: %w", err)
		}
		var meta models.FileMetadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			fmt.Printf("[SyncStore] Warning: skipping unreadable metadata %s: %v\n", e.Name(), err)
			continue
		}
		s.uploads[meta.FileID] = &meta
	}

	entries, err = os.ReadDir(filepath.Join(s.baseDir, syncedDir))
	if err != nil {
		return fmt.Errorf("reading synced data: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dataExt) {
			continue
		}
		s.synced[strings.TrimSuffix(e.Name(), dataExt)] = struct{}{}
	}
	return nil
}

// SaveUpload stores the content of r under a new id and returns its metadata.
func (s *LocalStore) SaveUpload(name, contentType string, r io.Reader) (*models.FileMetadata, error) {
	id := uuid.New().String()
	path := filepath.Join(s.baseDir, filesDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	meta := &models.FileMetadata{
		FileID:      id,
		Filename:    filepath.Base(name),
		ContentType: contentType,
		SizeBytes:   size,
		Columns:     []string{},
		InferSchema: map[string]string{},
		UploadedAt:  time.Now().UTC(),
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(s.baseDir, filesDir, id+metaExt), raw); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.mu.Lock()
	s.uploads[id] = meta
	s.mu.Unlock()

	cp := *meta
	return &cp, nil
}

// GetUpload returns the metadata of an uploaded file.
func (s *LocalStore) GetUpload(id string) (*models.FileMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.uploads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	cp := *meta
	return &cp, nil
}

// Put writes the synced data for fileID, replacing any earlier copy.
func (s *LocalStore) Put(fileID string, data []byte) error {
	if !validID.MatchString(fileID) {
		return fmt.Errorf("invalid file id %q", fileID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.dataPath(fileID), data); err != nil {
		return err
	}
	s.synced[fileID] = struct{}{}
	return nil
}

// Get returns the synced data for fileID.
func (s *LocalStore) Get(fileID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.synced[fileID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	raw, err := os.ReadFile(s.dataPath(fileID))
	if err != nil {
		return nil, fmt.Errorf("reading synced data: %w", err)
	}
	return raw, nil
}

// List returns the ids with synced data, sorted.
func (s *LocalStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.synced))
	for id := range s.synced {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete removes the synced data for fileID.
func (s *LocalStore) Delete(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.synced[fileID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if err := os.Remove(s.dataPath(fileID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting synced data: %w", err)
	}
	delete(s.synced, fileID)
	return nil
}

// Count returns the number of files with synced data.
func (s *LocalStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.synced)
}

func (s *LocalStore) dataPath(fileID string) string {
	return filepath.Join(s.baseDir, syncedDir, fileID+dataExt)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
