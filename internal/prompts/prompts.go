package prompts

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manager assembles the fixed system text sent with every chat request
// from the markdown files in a prompts directory. Order lists filenames
// that must come first, in that order; any remaining .md files follow
// lexicographically.
type Manager struct {
	Directory string
	Order     []string
}

func NewManager(dir string, order []string) *Manager {
	return &Manager{Directory: dir, Order: order}
}

func (m *Manager) GetSystemPrompt() (string, error) {
	entries, err := os.ReadDir(m.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	rank := make(map[string]int, len(m.Order))
	for i, name := range m.Order {
		rank[name] = i
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool {
		ri, okI := rank[names[i]]
		rj, okJ := rank[names[j]]
		if okI && okJ {
			return ri < rj
		}
		if okI != okJ {
			return okI
		}
		return names[i] < names[j]
	})

	var contents []string
	for _, name := range names {
		path := filepath.Join(m.Directory, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", m.Directory)
	}

	return strings.Join(contents, "\n\n---\n\n"), nil
}
