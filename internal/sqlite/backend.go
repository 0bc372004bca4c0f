package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/mangashelf/pkg/types"
)

// Compile-time interface checks.
var (
	_ types.Shelf       = (*Backend)(nil)
	_ types.TagCascader = (*Backend)(nil)
)

// Backend implements the Shelf interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	tables   map[string]*table

	syncStrategy  string         // effective sync strategy: immediate, on_close, batch
	batchSize     int            // number of queued writes before a batch flush
	batchInterval time.Duration  // time between batch flushes
	pendingWrites []pendingWrite // JSONL writes waiting for a flush
	batchTimer    *time.Timer    // timer for interval-based batch flush
	batchMu       sync.Mutex     // protects pendingWrites and batchTimer
}

// pendingWrite is a deferred JSONL write for one data file. Each persist
// rewrites the whole file from SQLite, so one entry per file suffices.
type pendingWrite struct {
	file    string
	persist func() error
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
	}
}

// GetTable returns a Table for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrShelfDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrShelfDetached
	}

	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite database,
// loads the JSONL files into it, and creates table accessors.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The database is a cache of the JSONL files; rebuild it every attach.
	dbPath := filepath.Join(dataDir, databaseFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps writes serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	for _, name := range []string{mangasFile, tagsFile, documentsFile} {
		if err := ensureJSONLFile(filepath.Join(dataDir, name)); err != nil {
			db.Close()
			return err
		}
	}

	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir

	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = nil

	b.attached = true

	b.tables[types.MangasTable] = &table{name: types.MangasTable, backend: b}
	b.tables[types.TagsTable] = &table{name: types.TagsTable, backend: b}

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}

	return nil
}

// Detach releases all resources held by the backend. Pending JSONL writes
// are flushed first. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()

	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*table)

	return nil
}

// DataDir returns the resolved data directory of an attached backend.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

// Stats counts rows in each table and reports queued JSONL writes.
func (b *Backend) Stats() (types.Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Stats{}, types.ErrShelfDetached
	}

	st := types.Stats{
		PendingWrites: b.pendingCount(),
		SyncStrategy:  b.syncStrategy,
		DataDir:       b.dataDir,
	}
	counts := []struct {
		table string
		dst   *int
	}{
		{"mangas", &st.Mangas},
		{"tags", &st.Tags},
		{"documents", &st.Documents},
	}
	for _, c := range counts {
		if err := b.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return types.Stats{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}
	return st, nil
}

// Flush writes all pending JSONL changes now, regardless of sync strategy.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrShelfDetached
	}
	return b.flushPendingWritesLocked()
}

// persist writes file via fn now or queues it, per the sync strategy.
// The caller must hold b.mu.
func (b *Backend) persist(file string, fn func() error) error {
	if b.syncStrategy == types.SyncImmediate || b.syncStrategy == "" {
		return fn()
	}
	b.queueWrite(file, fn)
	return nil
}

// queueWrite adds a write to the pending queue, replacing any queued write
// for the same file. For the batch strategy a full queue flushes at once.
// The caller must hold b.mu.
func (b *Backend) queueWrite(file string, fn func() error) {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	for _, pw := range b.pendingWrites {
		if pw.file == file {
			return
		}
	}
	b.pendingWrites = append(b.pendingWrites, pendingWrite{file: file, persist: fn})

	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && len(b.pendingWrites) >= b.batchSize {
		_ = b.flushPendingWritesBatchLocked()
	}
}

// flushPendingWritesLocked flushes all pending writes to JSONL files.
// The caller must hold b.mu write lock.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked executes all pending writes. Writes that
// fail stay queued for the next flush. The caller must hold b.batchMu.
func (b *Backend) flushPendingWritesBatchLocked() error {
	var remaining []pendingWrite
	var firstErr error
	for _, pw := range b.pendingWrites {
		if err := pw.persist(); err != nil {
			remaining = append(remaining, pw)
			if firstErr == nil {
				firstErr = fmt.Errorf("flush %s: %w", pw.file, err)
			}
		}
	}
	b.pendingWrites = remaining
	return firstErr
}

// pendingCount reports the number of queued writes.
func (b *Backend) pendingCount() int {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return len(b.pendingWrites)
}

// startBatchTimer starts the batch interval timer for periodic flushes.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}

		_ = b.flushPendingWritesLocked()

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the batch interval timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
