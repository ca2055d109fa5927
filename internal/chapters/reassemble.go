package chapters

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jackzampolin/redpen/internal/types"
)

// Reassemble turns edited lines back into chapter text.
//
// Unedited chapters come back byte-for-byte as Raw. Otherwise lines are
// joined with the paragraph separator the original used: a blank line when
// Raw separated paragraphs with blank lines, a single newline otherwise.
// A heading title and a trailing newline are restored when Raw had them.
func Reassemble(ch *types.Chapter, edited []string) string {
	if slices.Equal(ch.Lines, edited) && ch.Raw != "" {
		return ch.Raw
	}

	raw := strings.ReplaceAll(ch.Raw, "\r\n", "\n")
	sep := "\n"
	if strings.Contains(strings.TrimSpace(raw), "\n\n") {
		sep = "\n\n"
	}

	var b strings.Builder
	if title := headingTitle(raw); title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString(sep)
	}
	b.WriteString(strings.Join(edited, sep))
	if strings.HasSuffix(raw, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// Export writes the reassembled chapter to dir, keeping the chapter id as the
// file name. Returns the written path.
func Export(dir string, ch *types.Chapter, edited []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, ch.ID+".txt")
	if err := os.WriteFile(path, []byte(Reassemble(ch, edited)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write chapter %s: %w", ch.ID, err)
	}
	return path, nil
}

func headingTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		return ""
	}
	return ""
}
