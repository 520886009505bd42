package emberdb

import "github.com/emberdb/emberdb/internal/index"

// Iterator walks the engine's keys in order, fetching values lazily
// through the normal read path. The underlying keydir snapshot is taken at
// construction time, so iteration sees a consistent point-in-time view and
// never blocks writers.
type Iterator struct {
	indexIter index.IndexIterator
	engine    *Engine
}

// Iterator returns an iterator configured by opts.
func (e *Engine) Iterator(opts IteratorOptions) *Iterator {
	return &Iterator{
		indexIter: e.index.Iterator(opts.Reverse, opts.Prefix),
		engine:    e,
	}
}

// Rewind resets the iterator to its first element.
func (it *Iterator) Rewind() {
	it.indexIter.Rewind()
}

// Seek positions the iterator at the first key >= key, or <= key when
// iterating in reverse.
func (it *Iterator) Seek(key []byte) {
	it.indexIter.Seek(key)
}

// Next returns the current key-value pair and advances. A nil key reports
// exhaustion.
func (it *Iterator) Next() ([]byte, []byte, error) {
	key, pos := it.indexIter.Next()
	if key == nil {
		return nil, nil, nil
	}
	value, err := it.engine.getValueByPosition(pos)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}
