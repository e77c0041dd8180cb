// Package ingest turns a raw CV file into a canonical resume. Extraction
// prefers the completion provider; when none is configured, or its output
// cannot be recovered, a heuristic section parser takes over.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-tailor/internal/agent"
)

// TextExtractor produces plain text from a CV file. Implementations exist
// per source format; unreadable or empty input is a ParseError.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PlainTextExtractor reads .txt and .md CV files directly.
type PlainTextExtractor struct{}

func (PlainTextExtractor) ExtractText(_ context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".text":
	default:
		return "", agent.Errorf(agent.KindParse, "unsupported CV format %q", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", agent.Errorf(agent.KindParse, "reading CV file %s: %v", path, err)
	}
	if !utf8.Valid(data) {
		return "", agent.Errorf(agent.KindParse, "CV file %s is not valid UTF-8", path)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", agent.Errorf(agent.KindParse, "CV file %s is empty", path)
	}
	return text, nil
}
