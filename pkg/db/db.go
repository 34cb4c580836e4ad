package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	bloom "github.com/huhu99/bumblebloom/pkg/bloom"
	concurrency "github.com/huhu99/bumblebloom/pkg/concurrency"
	config "github.com/huhu99/bumblebloom/pkg/config"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
	metrics "github.com/huhu99/bumblebloom/pkg/metrics"
	pager "github.com/huhu99/bumblebloom/pkg/pager"

	errgroup "golang.org/x/sync/errgroup"
)

var (
	ErrFilterExists   = errors.New("filter already exists")
	ErrFilterNotFound = errors.New("filter not found")
	ErrBadFilterName  = errors.New("filter name must be alphanumeric")
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Database is a folder of named filters, one file per filter.
type Database struct {
	basepath string
	kind     hash.Kind
	mtx      sync.Mutex   // Guards filters.
	updates  sync.RWMutex // Shared by mutations, exclusive in LockAllUpdates.
	filters  map[string]*bloom.Filter
	lm       *concurrency.LockManager
	metrics  *metrics.Metrics // Optional.
}

// Opens a database given a data folder, loading every filter file in it.
func Open(folder string, kind hash.Kind) (*Database, error) {
	// Ensure folder is of the form */
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	// Make the data directory.
	err := os.MkdirAll(folder, 0775)
	if err != nil {
		return nil, err
	}
	db := &Database{
		basepath: folder,
		kind:     kind,
		filters:  make(map[string]*bloom.Filter),
		lm:       concurrency.NewLockManager(),
	}
	paths, err := filepath.Glob(filepath.Join(folder, "*"+config.FilterExt))
	if err != nil {
		return nil, err
	}
	group, ctx := errgroup.WithContext(context.Background())
	for _, path := range paths {
		path := path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			filter, err := loadFilter(path, kind)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(filepath.Base(path), config.FilterExt)
			db.mtx.Lock()
			db.filters[name] = filter
			db.mtx.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return db, nil
}

func loadFilter(path string, kind hash.Kind) (*bloom.Filter, error) {
	data, err := pager.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bloom.Decode(data, kind)
}

// Attach metrics; every later add, contains and clear is recorded.
func (db *Database) SetMetrics(m *metrics.Metrics) {
	db.metrics = m
	db.reportOpen()
}

func (db *Database) reportOpen() {
	if db.metrics == nil {
		return
	}
	db.mtx.Lock()
	n := len(db.filters)
	db.mtx.Unlock()
	db.metrics.SetFiltersOpen(n)
}

// Save every filter to disk.
func (db *Database) Close() error {
	return db.Flush()
}

// Create a log file for the database.
func (db *Database) CreateLogFile(filename string) error {
	if _, err := os.Stat(filename); err == nil {
		return nil
	}
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	return file.Close()
}

// ValidateFilterName rejects empty and non-alphanumeric names.
func ValidateFilterName(name string) error {
	if name == "" || nonAlphanumeric.MatchString(name) {
		return ErrBadFilterName
	}
	return nil
}

// Journal records a mutation. It runs under the same locks as the mutation,
// so the journal order matches the order mutations are applied in.
type Journal func() error

// Create a filter with the given size and number of positions per item.
func (db *Database) CreateFilter(name string, bitsNum uint, times uint) (*bloom.Filter, error) {
	return db.CreateFilterJournaled(name, bitsNum, times, nil)
}

// Create a filter, calling journal once the name is known to be free.
func (db *Database) CreateFilterJournaled(name string, bitsNum uint, times uint, journal Journal) (*bloom.Filter, error) {
	if err := ValidateFilterName(name); err != nil {
		return nil, err
	}
	db.updates.RLock()
	defer db.updates.RUnlock()
	db.mtx.Lock()
	if _, ok := db.filters[name]; ok {
		db.mtx.Unlock()
		return nil, ErrFilterExists
	}
	if journal != nil {
		if err := journal(); err != nil {
			db.mtx.Unlock()
			return nil, err
		}
	}
	filter := bloom.NewWithKind(bitsNum, times, db.kind)
	db.filters[name] = filter
	db.mtx.Unlock()
	db.reportOpen()
	return filter, nil
}

// Block all mutations until UnlockAllUpdates; in-flight ones finish first.
func (db *Database) LockAllUpdates() {
	db.updates.Lock()
}

// Enable mutations.
func (db *Database) UnlockAllUpdates() {
	db.updates.Unlock()
}

// Get a filter by its name.
func (db *Database) GetFilter(name string) (*bloom.Filter, error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	filter, ok := db.filters[name]
	if !ok {
		return nil, ErrFilterNotFound
	}
	return filter, nil
}

// Get the sorted names of every filter.
func (db *Database) GetFilterNames() []string {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	names := make([]string, 0, len(db.filters))
	for name := range db.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Returns the basepath of the database.
func (db *Database) GetBasePath() string {
	return db.basepath
}

// withFilter runs fn on the named filter while holding its lock.
func (db *Database) withFilter(name string, lType concurrency.LockType, fn func(*bloom.Filter) error) error {
	filter, err := db.GetFilter(name)
	if err != nil {
		return err
	}
	resource := concurrency.NewResource(name)
	if err := db.lm.Lock(resource, lType); err != nil {
		return err
	}
	defer db.lm.Unlock(resource, lType)
	return fn(filter)
}

// Add an item to the named filter.
func (db *Database) Add(name string, item hash.Hashable) error {
	return db.AddJournaled(name, item, nil)
}

// Add an item, calling journal under the filter's write lock first.
func (db *Database) AddJournaled(name string, item hash.Hashable, journal Journal) error {
	err := db.mutate(name, journal, func(filter *bloom.Filter) {
		filter.Add(item)
	})
	if err == nil && db.metrics != nil {
		db.metrics.RecordAdd(name)
	}
	return err
}

// Check whether the named filter might contain an item.
func (db *Database) Contains(name string, item hash.Hashable) (found bool, err error) {
	err = db.withFilter(name, concurrency.R_LOCK, func(filter *bloom.Filter) error {
		found = filter.Contains(item)
		return nil
	})
	if err == nil && db.metrics != nil {
		db.metrics.RecordQuery(name, found)
	}
	return found, err
}

// Clear every bit of the named filter.
func (db *Database) Clear(name string) error {
	return db.ClearJournaled(name, nil)
}

// Clear the named filter, calling journal under its write lock first.
func (db *Database) ClearJournaled(name string, journal Journal) error {
	err := db.mutate(name, journal, func(filter *bloom.Filter) {
		filter.ClearAll()
	})
	if err == nil && db.metrics != nil {
		db.metrics.RecordClear(name)
	}
	return err
}

// mutate journals and applies fn to the named filter as one step.
func (db *Database) mutate(name string, journal Journal, fn func(*bloom.Filter)) error {
	db.updates.RLock()
	defer db.updates.RUnlock()
	return db.withFilter(name, concurrency.W_LOCK, func(filter *bloom.Filter) error {
		if journal != nil {
			if err := journal(); err != nil {
				return err
			}
		}
		fn(filter)
		return nil
	})
}

// Stats is a read-only view of a filter's parameters.
type Stats struct {
	BitsNum   uint
	Times     uint
	FillRatio float64
}

// Get the stats of the named filter.
func (db *Database) Stat(name string) (stats Stats, err error) {
	err = db.withFilter(name, concurrency.R_LOCK, func(filter *bloom.Filter) error {
		stats = Stats{
			BitsNum:   filter.BitsNum(),
			Times:     filter.Times(),
			FillRatio: filter.FillRatio(),
		}
		return nil
	})
	return stats, err
}

// Save the named filter to its file.
func (db *Database) Save(name string) error {
	return db.withFilter(name, concurrency.R_LOCK, func(filter *bloom.Filter) error {
		data, err := filter.MarshalBinary()
		if err != nil {
			return err
		}
		return pager.WriteFile(db.filterPath(name), data)
	})
}

// Flush saves every filter, returning the first error.
func (db *Database) Flush() (err error) {
	for _, name := range db.GetFilterNames() {
		curErr := db.Save(name)
		if err == nil {
			err = curErr
		}
	}
	return err
}

func (db *Database) filterPath(name string) string {
	return filepath.Join(db.basepath, name+config.FilterExt)
}
