package extraction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()

	assert.NotEmpty(t, p.InvoiceExtraction.System)
	assert.Contains(t, p.InvoiceExtraction.UserTemplate, "Full Course")
	assert.Equal(t, 4096, p.InvoiceExtraction.MaxTokens)
	assert.NotEmpty(t, p.ColumnIdentification.UserTemplate)
}

func TestLoadPrompts(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		p, err := LoadPrompts("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPrompts(), p)
	})

	t.Run("file overrides a section", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		content := "column_identification:\n  temperature: 0.2\n  max_tokens: 100\n  system: custom\n  user_template: \"{{range .Headers}}{{.}};{{end}}\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		p, err := LoadPrompts(path)
		require.NoError(t, err)
		assert.Equal(t, "custom", p.ColumnIdentification.System)
		assert.Equal(t, DefaultPrompts().InvoiceExtraction, p.InvoiceExtraction)

		out, err := renderTemplate(p.ColumnIdentification.UserTemplate, columnPromptData{Headers: []string{"A", "B"}})
		require.NoError(t, err)
		assert.Equal(t, "A;B;", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestRenderTemplate_Invalid(t *testing.T) {
	_, err := renderTemplate("{{.Missing", nil)
	assert.Error(t, err)
}
