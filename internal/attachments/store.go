// Package attachments uploads quote documents to object storage.
package attachments

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

// Store uploads a document and returns its public URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// PathGenerator builds object paths of the form {quoteID}/{kind}_{millis}.{ext}.
// Paths are unique per generator even for uploads within the same millisecond.
type PathGenerator struct {
	mu    sync.Mutex
	last  int64
	clock func() time.Time
}

// NewPathGenerator returns a generator reading the wall clock.
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{clock: time.Now}
}

// Next returns the path for a new upload of filename.
func (g *PathGenerator) Next(quoteID, kind, filename string) string {
	g.mu.Lock()
	stamp := g.now().UnixMilli()
	if stamp <= g.last {
		stamp = g.last + 1
	}
	g.last = stamp
	g.mu.Unlock()

	name := fmt.Sprintf("%s_%d", kind, stamp)
	if ext := Extension(filename); ext != "" {
		name += "." + ext
	}
	return quoteID + "/" + name
}

func (g *PathGenerator) now() time.Time {
	if g.clock != nil {
		return g.clock()
	}
	return time.Now()
}

// Extension returns the text after the last dot of filename, without the dot.
func Extension(filename string) string {
	ext := path.Ext(strings.TrimSpace(filename))
	return strings.TrimPrefix(ext, ".")
}
