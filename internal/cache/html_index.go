package cache

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/bookctl/internal/api"
)

// IndexBook is one card in the HTML index.
type IndexBook struct {
	Book      api.Book
	CoverPath string // local cached cover, "" if none
}

// GenerateHTMLIndex writes index.html into the cache directory and returns
// its path.
func (m *Manager) GenerateHTMLIndex(title string, books []IndexBook) (string, error) {
	if err := os.MkdirAll(m.baseDir, 0750); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	indexPath := filepath.Join(m.baseDir, "index.html")
	if err := os.WriteFile(indexPath, []byte(m.generateHTML(title, books)), 0644); err != nil {
		return "", fmt.Errorf("writing index.html: %w", err)
	}
	return indexPath, nil
}

func (m *Manager) generateHTML(title string, books []IndexBook) string {
	var s strings.Builder

	fmt.Fprintf(&s, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { background: #1c2829; color: #e8e8e8; font-family: system-ui, sans-serif; margin: 2rem; }
        h1 { color: #fb6820; }
        .count { color: #2ecfd4; font-size: 0.9rem; }
        .library { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 1.5rem; }
        .book-card { background: #0d3536; border-radius: 8px; padding: 0.75rem; }
        .book-cover { height: 240px; display: flex; align-items: center; justify-content: center; font-size: 3rem; }
        .book-cover img { max-height: 240px; max-width: 100%%; border-radius: 4px; }
        .book-title { font-weight: 600; margin-top: 0.5rem; }
        .book-author { color: #2ecfd4; font-size: 0.9rem; }
        .book-desc { color: #aaa; font-size: 0.8rem; margin-top: 0.25rem; }
    </style>
</head>
<body>
    <h1>%s</h1>
    <div class="count">%d books</div>
    <div class="library">
`, html.EscapeString(title), html.EscapeString(title), len(books))

	for _, b := range books {
		m.renderBookCard(&s, b)
	}

	s.WriteString(`    </div>
</body>
</html>
`)
	return s.String()
}

func (m *Manager) renderBookCard(s *strings.Builder, b IndexBook) {
	fmt.Fprintf(s, `        <div class="book-card" data-id="%d">
            <div class="book-cover">`, b.Book.ID)

	if b.CoverPath != "" {
		rel, err := filepath.Rel(m.baseDir, b.CoverPath)
		if err != nil {
			rel = b.CoverPath
		}
		fmt.Fprintf(s, `<img src="%s" alt="Cover">`, html.EscapeString(filepath.ToSlash(rel)))
	} else {
		s.WriteString("&#128218;")
	}

	s.WriteString(`</div>
            <div class="book-title">` + html.EscapeString(b.Book.Name) + `</div>
`)
	if b.Book.Author != "" {
		s.WriteString(`            <div class="book-author">` + html.EscapeString(b.Book.Author) + `</div>
`)
	}
	if b.Book.Description != "" {
		s.WriteString(`            <div class="book-desc">` + html.EscapeString(b.Book.Description) + `</div>
`)
	}
	s.WriteString(`        </div>
`)
}
