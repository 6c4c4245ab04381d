package engine

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/mvp-joe/spyglass/internal/search"
)

// buildIndexMapping keeps the default dynamic mapping for searchable
// fields and adds a stored-only field for the raw document source.
func buildIndexMapping() *mapping.IndexMappingImpl {
	rawMapping := bleve.NewTextFieldMapping()
	rawMapping.Store = true
	rawMapping.Index = false
	rawMapping.IncludeTermVectors = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(rawField, rawMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func openIndex(path string) (bleve.Index, error) {
	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	return index, nil
}

// EnsureIndex returns the named index, creating it on disk when the
// auto-create pattern admits the name. The primary index always exists;
// any other name must match the pattern.
func (n *Node) EnsureIndex(name string) (bleve.Index, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, errors.New("node is closed")
	}
	if name == primaryIndexName {
		return n.index, nil
	}
	if index, ok := n.extra[name]; ok {
		return index, nil
	}
	if !n.autoCreate.Match(name) {
		return nil, fmt.Errorf("index %q is not admitted by auto-create pattern %q",
			name, n.settings.Get(search.KeyAutoCreate))
	}
	index, err := openIndex(filepath.Join(n.dataDir, name+".bleve"))
	if err != nil {
		return nil, err
	}
	n.extra[name] = index
	return index, nil
}
