// Package chapters loads a project's chapter files and writes edited chapters back out.
package chapters

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/redpen/internal/types"
)

// Extensions lists the chapter file extensions LoadDir picks up.
var Extensions = []string{".txt", ".md"}

// ErrDuplicateID is returned when two chapter files map to the same chapter id,
// such as ch1.txt and ch1.md.
var ErrDuplicateID = errors.New("duplicate chapter id")

// Request contains the parameters for loading a chapter directory.
type Request struct {
	Dir     string             // Directory of chapter files (sorted by numeric suffix)
	Counter types.TokenCounter // Optional; fills Chapter.Tokens when set
	Logger  *slog.Logger       // Optional logger for progress updates
}

// LoadDir reads every chapter file in dir. See Load.
func LoadDir(dir string, counter types.TokenCounter) ([]*types.Chapter, error) {
	return Load(Request{Dir: dir, Counter: counter})
}

// Load reads the chapter files of a directory in numeric order.
//
// Each file becomes one chapter numbered by its position. Chapter text is
// normalized here, once: lines are trimmed and blank lines dropped, so the
// numbering the backend sees never counts empty lines. The file content is
// kept verbatim in Chapter.Raw for reassembly.
func Load(req Request) ([]*types.Chapter, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	entries, err := os.ReadDir(req.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !hasChapterExt(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(req.Dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no chapter files (%s) in %s", strings.Join(Extensions, ", "), req.Dir)
	}

	paths = sortByNumber(paths)
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		id := chapterID(p)
		if prev, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w %q: %s and %s", ErrDuplicateID, id, filepath.Base(prev), filepath.Base(p))
		}
		seen[id] = p
	}
	chapters := make([]*types.Chapter, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read chapter %s: %w", p, err)
		}
		ch := Parse(chapterID(p), i+1, string(data))
		if ch.Title == "" {
			ch.Title = deriveTitle(p)
		}
		if req.Counter != nil {
			ch.EnsureTokens(req.Counter)
		}
		log.Debug("loaded chapter", "id", ch.ID, "number", ch.Number, "lines", len(ch.Lines), "tokens", ch.Tokens)
		chapters = append(chapters, ch)
	}

	log.Info("loaded chapters", "dir", req.Dir, "count", len(chapters))
	return chapters, nil
}

// Parse builds a chapter from raw text. A leading markdown heading
// ("# Title") becomes the title and is not part of the editable lines.
func Parse(id string, number int, raw string) *types.Chapter {
	ch := &types.Chapter{
		ID:     id,
		Number: number,
		Raw:    raw,
		Status: types.StatusNotStarted,
	}
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if ch.Title == "" && len(ch.Lines) == 0 && strings.HasPrefix(line, "# ") {
			ch.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			continue
		}
		ch.Lines = append(ch.Lines, line)
	}
	return ch
}

func hasChapterExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func chapterID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var numberSuffix = regexp.MustCompile(`(\d+)$`)

// sortByNumber sorts chapter paths by the numeric suffix of their file name.
// e.g., ["ch-2.txt", "ch-1.txt", "ch-10.txt"] -> ["ch-1.txt", "ch-2.txt", "ch-10.txt"]
func sortByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := numberSuffix.FindStringSubmatch(chapterID(sorted[i]))
		mj := numberSuffix.FindStringSubmatch(chapterID(sorted[j]))

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			if ni != nj {
				return ni < nj
			}
			return sorted[i] < sorted[j]
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		return sorted[i] < sorted[j]
	})

	return sorted
}

// deriveTitle extracts a title from a chapter filename.
// e.g., "the-storm.txt" -> "the-storm"
// e.g., "chapter-01.md" -> "chapter"
func deriveTitle(path string) string {
	name := chapterID(path)
	name = strings.TrimRight(numberSuffix.ReplaceAllString(name, ""), "-_ .")
	return name
}
