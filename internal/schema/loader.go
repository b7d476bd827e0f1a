package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/datatable/internal/core"
)

// DefaultPattern matches definition files anywhere below the dataset root.
const DefaultPattern = "**/*.{yaml,yml}"

// SourceFunc builds the row source for a database-backed definition.
type SourceFunc func(src Source, columns []core.ColumnDef) (core.RowSource, error)

// ErrNoSource is returned for a database-backed definition when no
// SourceFunc is configured.
var ErrNoSource = errors.New("dataset needs a database source")

// Loader discovers and loads dataset definitions from a file system.
type Loader struct {
	FS      fs.FS
	Pattern string
	// Sources builds row sources for server-side definitions. When nil those
	// definitions are skipped.
	Sources SourceFunc
	Logger  *slog.Logger
}

// NewLoader loads definitions below dir.
func NewLoader(dir, pattern string, sources SourceFunc) *Loader {
	return &Loader{
		FS:      os.DirFS(dir),
		Pattern: pattern,
		Sources: sources,
		Logger:  slog.Default(),
	}
}

// Load reads every matching definition, in path order. A definition that
// fails to load aborts the whole load so a broken file is never silently
// missing from the server.
func (l *Loader) Load() ([]core.Dataset, error) {
	pattern := l.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	matches, err := doublestar.Glob(l.FS, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)

	datasets := make([]core.Dataset, 0, len(matches))
	for _, name := range matches {
		def, err := l.readDefinition(name)
		if err != nil {
			return nil, err
		}

		ds, err := l.build(name, def)
		if errors.Is(err, ErrNoSource) {
			logger.Warn("skipping database dataset, no database configured",
				"dataset", def.Key,
				"file", name,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		logger.Debug("dataset loaded",
			"dataset", ds.Key,
			"file", name,
			"columns", len(ds.Columns),
			"rows", len(ds.Rows),
			"server_side", ds.Source != nil,
		)
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// Register loads every definition and adds it to the dataset registry.
func (l *Loader) Register() (int, error) {
	datasets, err := l.Load()
	if err != nil {
		return 0, err
	}
	for _, ds := range datasets {
		if err := core.Register(ds); err != nil {
			return 0, err
		}
	}
	return len(datasets), nil
}

// LoadDir is a shortcut for NewLoader(dir, pattern, sources).Register().
func LoadDir(dir, pattern string, sources SourceFunc) (int, error) {
	return NewLoader(dir, pattern, sources).Register()
}

func (l *Loader) readDefinition(name string) (*Definition, error) {
	b, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if def.Key == "" {
		base := path.Base(name)
		def.Key = strings.TrimSuffix(base, path.Ext(base))
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &def, nil
}

// build turns a validated definition into a dataset. name is the definition's
// path, used to resolve its data file.
func (l *Loader) build(name string, def *Definition) (core.Dataset, error) {
	ds := core.Dataset{
		Key:         def.Key,
		Group:       def.Group,
		Title:       def.Title,
		Description: def.Description,
		Columns:     def.columnDefs(),
		Options:     def.options(),
		StorageKey:  def.StorageKey,
	}

	switch {
	case def.Source != nil:
		if l.Sources == nil {
			return core.Dataset{}, ErrNoSource
		}
		src := *def.Source
		src.Columns = def.sqlColumns()
		rs, err := l.Sources(src, ds.Columns)
		if err != nil {
			return core.Dataset{}, fmt.Errorf("source %s: %w", src.Table, err)
		}
		ds.Source = rs
		ds.Options.ServerSide = true

	case def.Data != "":
		rows, err := l.readData(path.Join(path.Dir(name), def.Data), def)
		if err != nil {
			return core.Dataset{}, err
		}
		ds.Rows = rows

	default:
		ds.Rows = def.convertRows(def.Rows)
	}
	return ds, nil
}

func (l *Loader) readData(name string, def *Definition) ([]core.RowData, error) {
	b, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		comma := ','
		if strings.EqualFold(path.Ext(name), ".tsv") {
			comma = '\t'
		}
		if def.CSVComma != "" {
			comma, _ = utf8.DecodeRuneInString(def.CSVComma)
		}
		rows, err := readCSVRows(bytes.NewReader(b), comma, def.Columns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out := make([]core.RowData, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, nil

	case ".json":
		rows, err := readJSONRows(b, def.DataPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return def.convertRows(rows), nil
	}
	return nil, fmt.Errorf("%s: unsupported data file type %q", name, path.Ext(name))
}

// readJSONRows parses a JSON document and returns its row array: the document
// itself, or the first match of dataPath.
func readJSONRows(b []byte, dataPath string) ([]any, error) {
	doc, err := oj.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if dataPath != "" {
		expr, err := jp.ParseString(dataPath)
		if err != nil {
			return nil, fmt.Errorf("data_path %q: %w", dataPath, err)
		}
		doc = expr.First(doc)
	}

	rows, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of rows, got %T", doc)
	}
	return rows, nil
}
