package lookup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"FlowTagger/internal/model"
)

// Column names the lookup source must provide in its header row.
const (
	ColumnDstPort  = "dstport"
	ColumnProtocol = "protocol"
	ColumnTag      = "tag"
)

// Table maps (destination port, protocol name) pairs to tags.
// It is built once and only read afterwards.
type Table struct {
	entries map[model.CombinationKey]string
}

// NewKey normalizes a port and protocol into a lookup key.
func NewKey(port, protocol string) model.CombinationKey {
	return model.CombinationKey{
		Port:     strings.TrimSpace(port),
		Protocol: strings.ToLower(strings.TrimSpace(protocol)),
	}
}

// Load reads a lookup table from a CSV file.
func Load(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup file '%s': %w: %v", path, model.ErrResourceNotFound, err)
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup file '%s': %w", path, err)
	}
	return table, nil
}

// Parse reads a lookup table from CSV data with a header row naming the
// dstport, protocol and tag columns. Later rows overwrite earlier rows with the same key.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", model.ErrMalformedInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
	}

	portCol, protoCol, tagCol, err := columns(header)
	if err != nil {
		return nil, err
	}

	entries := make(map[model.CombinationKey]string)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrMalformedInput, err)
		}
		entries[NewKey(row[portCol], row[protoCol])] = strings.TrimSpace(row[tagCol])
	}

	return &Table{entries: entries}, nil
}

// columns locates the required columns in the header row.
func columns(header []string) (port, protocol, tag int, err error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	port = lookup(ColumnDstPort)
	protocol = lookup(ColumnProtocol)
	tag = lookup(ColumnTag)

	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: header is missing column(s) %s", model.ErrMalformedInput, strings.Join(missing, ", "))
	}
	return port, protocol, tag, nil
}

// Resolve returns the tag for a port and protocol name.
func (t *Table) Resolve(port, protocol string) (string, bool) {
	tag, ok := t.entries[NewKey(port, protocol)]
	return tag, ok
}

// ResolveKey returns the tag for an already normalized key.
func (t *Table) ResolveKey(key model.CombinationKey) (string, bool) {
	tag, ok := t.entries[key]
	return tag, ok
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table contents.
func (t *Table) Entries() map[model.CombinationKey]string {
	out := make(map[model.CombinationKey]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}
