// ABOUTME: Export/import file format {favorites, history, trash, exportDate}
// ABOUTME: Decode validates against an embedded JSON Schema before any merge happens

package transfer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/harper/wikifaves/internal/models"
)

// Filename is the default export filename.
const Filename = "wikifaves.json"

// MaxImportSize caps the bytes read from an import file.
const MaxImportSize = 32 * 1024 * 1024

// ErrMalformed means the dataset does not match the export format.
var ErrMalformed = errors.New("malformed dataset")

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://wikifaves.local/export.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse export schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add export schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Dataset is the exported file.
type Dataset struct {
	Favorites  models.Favorites `json:"favorites"`
	History    models.History   `json:"history"`
	Trash      models.Trash     `json:"trash"`
	ExportDate models.Timestamp `json:"exportDate"`
}

// FromSnapshot wraps snap for export.
func FromSnapshot(snap models.Snapshot, now time.Time) Dataset {
	snap = snap.Normalize()
	return Dataset{
		Favorites:  snap.Favorites,
		History:    snap.History,
		Trash:      snap.Trash,
		ExportDate: models.NewTimestamp(now),
	}
}

// Snapshot returns the collections of d.
func (d Dataset) Snapshot() models.Snapshot {
	return models.Snapshot{Favorites: d.Favorites, History: d.History, Trash: d.Trash}.Normalize()
}

// Encode writes snap as an indented export document.
func Encode(w io.Writer, snap models.Snapshot, now time.Time) error {
	data, err := json.MarshalIndent(FromSnapshot(snap, now), "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Decode reads and validates an export document. Any shape or semantic
// problem fails the whole document with ErrMalformed.
func Decode(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrMalformed, MaxImportSize)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	snap := ds.Snapshot()
	ds.Favorites, ds.History, ds.Trash = snap.Favorites, snap.History, snap.Trash
	return &ds, nil
}

// Validate runs the semantic checks the schema cannot express.
func (d Dataset) Validate() error {
	for key, f := range d.Favorites {
		if key == "" {
			return errors.New("favorites: empty key")
		}
		if err := f.Validate(); err != nil {
			return fmt.Errorf("favorites[%q]: %w", key, err)
		}
	}
	for key, h := range d.History {
		if key == "" {
			return errors.New("history: empty key")
		}
		if err := h.Validate(); err != nil {
			return fmt.Errorf("history[%q]: %w", key, err)
		}
	}
	for key, t := range d.Trash {
		if key == "" {
			return errors.New("trash: empty key")
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("trash[%q]: %w", key, err)
		}
	}
	return nil
}
