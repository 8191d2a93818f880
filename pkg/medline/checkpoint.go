package medline

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// Checkpoints records which diseases a batch run has already processed
// so an interrupted run resumes instead of restarting. Entries are kept
// in an embedded Badger database.
type Checkpoints struct {
	db *badger.DB
}

// Entry is the stored state for one disease.
type Entry struct {
	Disease string `json:"disease"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

// OpenCheckpoints opens or creates a checkpoint database at path.
func OpenCheckpoints(path string) (*Checkpoints, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint db: %w", err)
	}
	return &Checkpoints{db: db}, nil
}

// Get returns the entry for a disease, or nil when none exists.
func (c *Checkpoints) Get(disease string) (*Entry, error) {
	var entry *Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(disease))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var e Entry
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			entry = &e
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Put stores an entry keyed by its disease name.
func (c *Checkpoints) Put(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(entry.Disease), data)
	})
}

// Done reports whether a disease already completed successfully.
func (c *Checkpoints) Done(disease string) (bool, error) {
	entry, err := c.Get(disease)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.Done, nil
}

// Close closes the underlying database.
func (c *Checkpoints) Close() error {
	return c.db.Close()
}
