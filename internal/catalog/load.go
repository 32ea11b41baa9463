package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML list of books to import. A missing file is an error.
func Load(path string) ([]NewBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of books. Ids in the input are ignored; the
// backend assigns new ones.
func Parse(data []byte) ([]NewBook, error) {
	if len(data) == 0 {
		return []NewBook{}, nil
	}
	var books []NewBook
	if err := yaml.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parsing book YAML: %w", err)
	}
	if books == nil {
		return []NewBook{}, nil
	}
	return books, nil
}
