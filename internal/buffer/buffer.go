// Package buffer implements a reusable buffer pool.
package buffer

import (
	"bytes"
	"sync"
)

// maxPooledSize is the capacity above which buffers are dropped instead of
// being returned to the pool.
const maxPooledSize = 4 << 20

// Get returns an empty buffer from the pool.
func Get() *bytes.Buffer {
	return pool.Get().(*bytes.Buffer)
}

// Put resets b and returns it to the pool.
func Put(b *bytes.Buffer) {
	if b.Cap() > maxPooledSize {
		return
	}
	b.Reset()

	pool.Put(b)
}

var pool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}
