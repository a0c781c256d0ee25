// Package leveldb implements the ability to read and write blocks to a
// LevelDB key value store.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/siertrichain/blockchain/foundation/blockchain/database"
)

// blockPrefix namespaces block keys. The index is zero padded so the store's
// byte ordering matches chain ordering.
const blockPrefix = "block:"

// LevelDB represents the serialization implementation for reading and
// storing blocks in a LevelDB database. This implements the
// database.Serializer interface.
type LevelDB struct {
	mu     sync.RWMutex
	dbPath string
	conn   *leveldb.DB
}

// New opens, or creates, the database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	conn, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dbPath, err)
	}

	return &LevelDB{dbPath: dbPath, conn: conn}, nil
}

// Close safely closes the LevelDB connection.
func (l *LevelDB) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conn.Close()
}

// Write stores the block under its index.
func (l *LevelDB) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.conn.Put(key(block.Index), data, nil)
}

// GetBlock retrieves the block stored under the specified index.
func (l *LevelDB) GetBlock(index uint64) (database.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	data, err := l.conn.Get(key(index), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, fmt.Errorf("%w: index %d", database.ErrNotFound, index)
		}
		return database.Block{}, err
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, fmt.Errorf("decode block %d: %w", index, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks in index order.
func (l *LevelDB) ForEach() database.Iterator {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &levelIterator{iter: l.conn.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)}
}

// Reset deletes every stored block.
func (l *LevelDB) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	iter := l.conn.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}

	return l.conn.Write(batch, nil)
}

// key forms the database key for the specified block.
func key(index uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", blockPrefix, index)
}

// =============================================================================

// levelIterator walks the block keys in byte order. This implements the
// database Iterator interface.
type levelIterator struct {
	iter iterator.Iterator
	eoc  bool
}

// Next retrieves the next block from the store.
func (li *levelIterator) Next() (database.Block, error) {
	if li.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	if !li.iter.Next() {
		li.eoc = true
		err := li.iter.Error()
		li.iter.Release()
		if err != nil {
			return database.Block{}, err
		}
		return database.Block{}, database.ErrEndOfChain
	}

	var block database.Block
	if err := json.Unmarshal(li.iter.Value(), &block); err != nil {
		err = fmt.Errorf("decode block at key %s: %w", li.iter.Key(), err)
		li.eoc = true
		li.iter.Release()
		return database.Block{}, err
	}

	return block, nil
}

// Done returns the end of chain value.
func (li *levelIterator) Done() bool {
	return li.eoc
}
