package catalog

import (
	"can-dbc-catalog/internal/dbc"
	"can-dbc-catalog/internal/models"
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is one parsed database and how it was obtained
type Entry struct {
	Database *models.CANDatabase
	Source   string
	Failures []error
	ParsedAt time.Time
}

// Summary is the listing view of an entry
type Summary struct {
	Name     string    `json:"name"`
	Source   string    `json:"source,omitempty"`
	Messages int       `json:"messages"`
	Signals  int       `json:"signals"`
	Failures int       `json:"failures"`
	ParsedAt time.Time `json:"parsed_at"`
}

// Catalog maps database names to parsed databases. It is safe for
// concurrent use; stored databases are never modified.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty catalog
func New() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Put stores a database under its name, replacing any previous entry, and
// returns the stored entry
func (c *Catalog) Put(source string, res *dbc.Result) Entry {
	e := Entry{
		Database: res.Database,
		Source:   source,
		Failures: res.Failures,
		ParsedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[res.Database.Name] = e
	return e
}

// Get returns the entry for name
func (c *Catalog) Get(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[name]
	return e, ok
}

// Delete removes name and reports whether it existed
func (c *Catalog) Delete(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[name]
	delete(c.entries, name)
	return ok
}

// Names returns the stored database names in sorted order
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Summaries lists every entry sorted by name
func (c *Catalog) Summaries() []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Summary, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Summary())
	}
	slices.SortFunc(out, func(a, b Summary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Summary returns the listing view of one entry
func (e Entry) Summary() Summary {
	return Summary{
		Name:     e.Database.Name,
		Source:   e.Source,
		Messages: len(e.Database.Messages),
		Signals:  e.Database.SignalCount(),
		Failures: len(e.Failures),
		ParsedAt: e.ParsedAt,
	}
}
