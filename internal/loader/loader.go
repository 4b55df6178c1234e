package loader

import (
	"can-dbc-catalog/internal/config"
	"can-dbc-catalog/internal/dbc"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// Loader reads DBC files from disk into documents ready for parsing
type Loader struct {
	encoding encoding.Encoding
	logger   *zap.Logger
}

// New creates a loader decoding files with the given charset label
func New(charset string, logger *zap.Logger) (*Loader, error) {
	enc, err := dbc.LookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{encoding: enc, logger: logger}, nil
}

// Encoding returns the charset used for every loaded document (nil = UTF-8)
func (l *Loader) Encoding() encoding.Encoding {
	return l.encoding
}

// LoadFile reads one file into a document
func (l *Loader) LoadFile(name, path string) (dbc.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dbc.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	l.logger.Debug("loaded DBC file",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int("bytes", len(raw)))

	return dbc.Document{
		Name:     name,
		Source:   path,
		Raw:      raw,
		Encoding: l.encoding,
	}, nil
}

// Load reads the configured sources followed by every *.dbc file in dir.
// A directory file whose name is already taken by an explicit source is
// skipped. Unreadable files are reported without stopping the others.
func (l *Loader) Load(sources []config.Source, dir string) ([]dbc.Document, []error) {
	var (
		docs []dbc.Document
		errs []error
	)
	names := make(map[string]bool)

	for _, src := range sources {
		doc, err := l.LoadFile(src.Name, src.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names[src.Name] = true
		docs = append(docs, doc)
	}

	if dir == "" {
		return docs, errs
	}

	paths, err := ScanDir(dir)
	if err != nil {
		return docs, append(errs, err)
	}
	for _, path := range paths {
		name := config.SourceName(path)
		if names[name] {
			l.logger.Warn("skipping DBC file, name already configured",
				zap.String("name", name),
				zap.String("path", path))
			continue
		}

		doc, err := l.LoadFile(name, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names[name] = true
		docs = append(docs, doc)
	}

	return docs, errs
}

// ScanDir lists *.dbc files (any case) in dir, sorted by name
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read DBC directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".dbc") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
