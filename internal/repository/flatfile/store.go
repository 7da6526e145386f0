// Package flatfile keeps the inventory in memory and mirrors it to a
// pipe-delimited text file, one product per line.
package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/domain/models"
)

// LoadReport describes the outcome of a Load.
type LoadReport struct {
	Loaded     int
	Skipped    int
	Duplicates int
	Created    bool
}

// Store owns the in-memory product set and its backing file.
// It is not safe for concurrent use.
type Store struct {
	path   string
	logger *zap.Logger

	order  []string
	items  map[string]models.Product
	loaded bool
	dirty  bool
}

// NewStore returns an unloaded store backed by path.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		path:   path,
		logger: logger,
		items:  make(map[string]models.Product),
	}
}

// Open builds a store for path and loads it.
func Open(path string, logger *zap.Logger) (*Store, LoadReport, error) {
	s := NewStore(path, logger)
	report, err := s.Load()
	if err != nil {
		return nil, report, err
	}
	return s, report, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Len returns the number of products in memory.
func (s *Store) Len() int { return len(s.order) }

// Dirty reports whether the last mutation failed to persist.
func (s *Store) Dirty() bool { return s.dirty }

// Load replaces the in-memory set with the contents of the backing file.
// A missing file is created empty. Malformed lines are skipped. When an id
// appears more than once the last line wins and keeps the first position.
// On error the previous in-memory set is left untouched.
func (s *Store) Load() (LoadReport, error) {
	var report LoadReport

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.create(); err != nil {
			return report, err
		}
		s.order = nil
		s.items = make(map[string]models.Product)
		s.loaded = true
		s.dirty = false
		report.Created = true
		s.logger.Info("inventory file created", zap.String("path", s.path))
		return report, nil
	}
	if err != nil {
		return report, accessError("open", s.path, err)
	}
	defer f.Close()

	order := make([]string, 0, len(s.order))
	items := make(map[string]models.Product, len(s.items))

	r := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := r.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			if strings.TrimSpace(line) != "" {
				p, perr := models.ParseLine(line)
				switch {
				case perr != nil:
					report.Skipped++
					s.logger.Warn("skipping malformed line",
						zap.Int("line", lineNo),
						zap.String("content", strings.TrimSpace(line)),
						zap.Error(perr))
				default:
					if _, exists := items[p.ID]; exists {
						report.Duplicates++
						s.logger.Warn("duplicate product id, keeping last", zap.Int("line", lineNo), zap.String("id", p.ID))
					} else {
						order = append(order, p.ID)
					}
					items[p.ID] = p
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return LoadReport{}, accessError("read", s.path, readErr)
		}
	}

	s.order = order
	s.items = items
	s.loaded = true
	s.dirty = false
	report.Loaded = len(order)

	s.logger.Info("inventory loaded",
		zap.String("path", s.path),
		zap.Int("products", report.Loaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("duplicates", report.Duplicates))
	return report, nil
}

// Reload discards the in-memory set and loads the backing file again.
func (s *Store) Reload() (LoadReport, error) {
	return s.Load()
}

func (s *Store) create() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return accessError("create", s.path, err)
	}
	if err := f.Close(); err != nil {
		return accessError("create", s.path, err)
	}
	return nil
}

// Save writes every product to the backing file, replacing its content.
// The in-memory set is kept whether or not the write succeeds.
func (s *Store) Save() error {
	if !s.loaded {
		return ErrNotLoaded
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, s.path, err)
	}

	bw := bufio.NewWriter(f)
	for _, id := range s.order {
		if _, err := bw.WriteString(s.items[id].Line() + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("%w: write %s: %w", ErrIO, s.path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrIO, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, s.path, err)
	}

	s.dirty = false
	s.logger.Debug("inventory saved", zap.String("path", s.path), zap.Int("products", len(s.order)))
	return nil
}

// persist saves after a mutation and marks the store dirty on failure.
func (s *Store) persist() error {
	s.dirty = true
	if err := s.Save(); err != nil {
		s.logger.Error("failed to persist inventory", zap.String("path", s.path), zap.Error(err))
		return err
	}
	return nil
}

// Add inserts a new product and persists the inventory.
func (s *Store) Add(p models.Product) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	if _, exists := s.items[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, p.ID)
	}

	s.order = append(s.order, p.ID)
	s.items[p.ID] = p
	return s.persist()
}

// Update applies the given changes to an existing product and persists the inventory.
func (s *Store) Update(id string, changes models.ProductUpdate) (models.Product, error) {
	if !s.loaded {
		return models.Product{}, ErrNotLoaded
	}
	current, exists := s.items[id]
	if !exists {
		return models.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := changes.Apply(current)
	if err := updated.Validate(); err != nil {
		return models.Product{}, fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}

	s.items[id] = updated
	return updated, s.persist()
}

// Delete removes a product and persists the inventory.
func (s *Store) Delete(id string) (models.Product, error) {
	if !s.loaded {
		return models.Product{}, ErrNotLoaded
	}
	removed, exists := s.items[id]
	if !exists {
		return models.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return removed, s.persist()
}

// Find returns the product with the given id.
func (s *Store) Find(id string) (models.Product, bool) {
	p, ok := s.items[id]
	return p, ok
}

// Search returns the products matching fn, in insertion order.
func (s *Store) Search(fn func(models.Product) bool) []models.Product {
	var out []models.Product
	for p := range s.List() {
		if fn(p) {
			out = append(out, p)
		}
	}
	return out
}

// List yields every product in insertion order. Each call starts over.
func (s *Store) List() iter.Seq[models.Product] {
	return func(yield func(models.Product) bool) {
		for _, id := range slices.Clone(s.order) {
			if _, ok := s.items[id]; !ok {
				continue
			}
			if !yield(s.items[id]) {
				return
			}
		}
	}
}

// Close writes pending changes left by a failed save.
func (s *Store) Close() error {
	if !s.dirty {
		return nil
	}
	return s.Save()
}
