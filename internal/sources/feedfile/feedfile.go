// Package feedfile serves a captured supplier feed from disk so that runs can
// be replayed offline.
//
// A feed file is JSON or YAML and holds either the bare list of supplier
// records or the envelope returned by the supplier API:
//
//	success: true
//	response:
//	  - skuPadre: TSR-041
//	    nombrePadre: VASO KIRA
//	    hijos:
//	      - skuHijo: TSR-041-PLATA
//	        precio: "100.00"
//	        estatus: "1"
package feedfile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
	"github.com/agentstation/storesync/pkg/sources"
)

// Supplier implements sources.Supplier by reading a feed file on every listing.
type Supplier struct {
	path string
}

var _ sources.Supplier = (*Supplier)(nil)

// New creates a Supplier reading path.
func New(path string) (*Supplier, error) {
	if path == "" {
		return nil, errors.NewConfigError("feedfile", "feed file path is required", nil)
	}
	return &Supplier{path: path}, nil
}

// Path returns the feed file path.
func (s *Supplier) Path() string {
	return s.path
}

// ListProducts reads and decodes the feed file.
func (s *Supplier) ListProducts(ctx context.Context) (sources.SupplierSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return sources.SupplierSnapshot{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return sources.SupplierSnapshot{}, errors.WrapIO("read", s.path, err)
	}

	snap, err := Decode(data, format(s.path))
	if err != nil {
		return sources.SupplierSnapshot{}, err
	}

	logging.FromContext(ctx).Info().
		Str("path", s.path).
		Int("records", len(snap.Records)).
		Bool("complete", snap.Complete).
		Msg("Loaded supplier feed file")
	return snap, nil
}

// Format is the encoding of a feed file.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func format(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

type envelope struct {
	Success  *bool           `json:"success"`
	Response json.RawMessage `json:"response"`
}

// Decode parses feed data. YAML is converted to JSON first so that supplier
// amounts decode the same way in both formats.
func Decode(data []byte, f Format) (sources.SupplierSnapshot, error) {
	if f == FormatYAML {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return sources.SupplierSnapshot{}, errors.WrapParse(string(f), "supplier feed", err)
		}
		data = converted
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return sources.SupplierSnapshot{}, errors.NewParseError(string(f), "supplier feed", "empty feed", nil)
	}

	if data[0] == '[' {
		var records []sources.SupplierRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return sources.SupplierSnapshot{}, errors.WrapParse(string(f), "supplier feed", err)
		}
		return sources.SupplierSnapshot{Records: records, Complete: true}, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return sources.SupplierSnapshot{}, errors.WrapParse(string(f), "supplier feed", err)
	}
	if env.Success != nil && !*env.Success {
		return sources.SupplierSnapshot{}, errors.NewFetchError(sources.SupplierID.String(), "captured feed reports failure", nil)
	}

	raw := bytes.TrimSpace(env.Response)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return sources.SupplierSnapshot{Records: []sources.SupplierRecord{}, Complete: false}, nil
	}

	var records []sources.SupplierRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return sources.SupplierSnapshot{}, errors.WrapParse(string(f), "supplier feed", err)
	}
	return sources.SupplierSnapshot{Records: records, Complete: true}, nil
}
