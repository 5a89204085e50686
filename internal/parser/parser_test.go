package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writePPTX(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	// Sorted so slide order in the archive is deterministic.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtract(t *testing.T) {
	t.Run("txt file becomes one page", func(t *testing.T) {
		path := writeFile(t, "notes.txt", "First paragraph.\n\nSecond paragraph.")

		got, err := Extract(path)
		require.NoError(t, err)
		assert.Equal(t, 1, got.NumPages)
		require.Len(t, got.Pages, 1)
		assert.Equal(t, "First paragraph.\n\nSecond paragraph.", got.Pages[0])
		assert.Equal(t, got.Pages[0], got.Text)
	})

	t.Run("markdown is flattened to plain text blocks", func(t *testing.T) {
		path := writeFile(t, "doc.md", "# Heading\n\nSome *emphasised* text.\n\n- item one\n- item two\n")

		got, err := Extract(path)
		require.NoError(t, err)
		require.Len(t, got.Pages, 1)
		assert.Contains(t, got.Pages[0], "Heading")
		assert.Contains(t, got.Pages[0], "Some emphasised text.")
		assert.Contains(t, got.Pages[0], "item one")
		assert.NotContains(t, got.Pages[0], "#")
		assert.NotContains(t, got.Pages[0], "*")
	})

	t.Run("pptx slides become logical pages", func(t *testing.T) {
		path := writePPTX(t, map[string]string{
			"ppt/slides/slide1.xml": `<p:sp><a:t>Slide one title</a:t><a:t>and body</a:t></p:sp>`,
			"ppt/slides/slide2.xml": `<p:sp><a:t>Slide two</a:t></p:sp>`,
			"ppt/presentation.xml":  `<p:presentation><a:t>not slide text</a:t></p:presentation>`,
		})

		got, err := Extract(path)
		require.NoError(t, err)
		assert.Equal(t, 2, got.NumPages)
		require.Len(t, got.Pages, 2)
		assert.Equal(t, "Slide one title and body", got.Pages[0])
		assert.Equal(t, "Slide two", got.Pages[1])
		assert.NotContains(t, got.Text, "not slide text")
	})

	t.Run("pptx with empty slides yields no pages", func(t *testing.T) {
		path := writePPTX(t, map[string]string{
			"ppt/slides/slide1.xml": `<p:sp></p:sp>`,
		})

		got, err := Extract(path)
		require.NoError(t, err)
		assert.Zero(t, got.NumPages)
	})

	t.Run("unsupported format is rejected", func(t *testing.T) {
		path := writeFile(t, "image.png", "not text")

		_, err := Extract(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file format")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := Extract(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})

	t.Run("corrupt pdf is an error", func(t *testing.T) {
		path := writeFile(t, "broken.pdf", "this is not a pdf")

		_, err := Extract(path)
		assert.Error(t, err)
	})
}
