package catalog

import (
	"bytes"
	"fmt"

	"github.com/blackwell-systems/bookctl/internal/util"
	"gopkg.in/yaml.v3"
)

// Marshal encodes a book list to YAML.
func Marshal(books []Book) ([]byte, error) {
	if books == nil {
		books = []Book{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(books); err != nil {
		return nil, fmt.Errorf("encoding books: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the book list to path as YAML.
func Save(path string, books []Book) error {
	data, err := Marshal(books)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, bytes.NewReader(data), 0600)
}
