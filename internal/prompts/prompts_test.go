package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePrompts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestManager_GetSystemPromptConfiguredOrder(t *testing.T) {
	dir := writePrompts(t, map[string]string{
		"identity.md":     "Identity Content",
		"capabilities.md": "Capabilities Content",
		"planning.md":     "Planning Content",
		"extra.md":        "Extra Content",
		"notes.txt":       "ignored",
	})

	m := NewManager(dir, []string{"identity.md", "capabilities.md", "planning.md"})
	prompt, err := m.GetSystemPrompt()
	if err != nil {
		t.Fatal(err)
	}

	for _, part := range []string{
		"Identity Content",
		"Capabilities Content",
		"Planning Content",
		"Extra Content",
	} {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}
	if strings.Contains(prompt, "ignored") {
		t.Error("non-markdown files must be skipped")
	}

	// Configured names lead, in configured order; the rest trail.
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Capabilities Content") {
		t.Error("identity should be before capabilities")
	}
	if strings.Index(prompt, "Capabilities Content") >= strings.Index(prompt, "Planning Content") {
		t.Error("capabilities should be before planning")
	}
	if strings.Index(prompt, "Planning Content") >= strings.Index(prompt, "Extra Content") {
		t.Error("unlisted files should come after configured ones")
	}
}

func TestManager_GetSystemPromptLexicographicWithoutOrder(t *testing.T) {
	dir := writePrompts(t, map[string]string{
		"10-identity.md": "First",
		"20-rules.md":    "Second",
	})

	m := NewManager(dir, nil)
	prompt, err := m.GetSystemPrompt()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Index(prompt, "First") >= strings.Index(prompt, "Second") {
		t.Error("files should be joined in filename order")
	}
}

func TestManager_GetSystemPromptEmptyDir(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if _, err := m.GetSystemPrompt(); err == nil {
		t.Error("expected an error for a directory with no prompt files")
	}
}
