package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range parts {
		part, err := w.Create(name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestTextPlainFormats(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range []string{"txt", "md", "csv"} {
		path := filepath.Join(dir, "file."+ext)
		require.NoError(t, os.WriteFile(path, []byte("hello from "+ext), 0644))

		text, err := Text(path, ext)
		require.NoError(t, err)
		assert.Equal(t, "hello from "+ext, text)
	}
}

func TestTextEmptyFileReportsNoText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0644))

	_, err := Text(path, "txt")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTextLegacyFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.doc")
	require.NoError(t, os.WriteFile(path, []byte{0xd0, 0xcf, 0x11, 0xe0}, 0644))

	for _, ext := range []string{"doc", "xls", "ppt"} {
		_, err := Text(path, ext)
		assert.ErrorIs(t, err, ErrNoText, ext)
	}
}

func TestTextUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("binary"), 0644))

	_, err := Text(path, "png")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTextDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.docx")
	writeZip(t, path, map[string]string{
		"word/document.xml": `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Quarterly revenue</w:t></w:r><w:r><w:t>grew 12 percent.</w:t></w:r></w:p>
  </w:body>
</w:document>`,
		"word/styles.xml": `<w:styles xmlns:w="x"><w:t>style names</w:t></w:styles>`,
	})

	text, err := Text(path, "docx")
	require.NoError(t, err)
	assert.Contains(t, text, "Quarterly revenue")
	assert.Contains(t, text, "grew 12 percent.")
	assert.NotContains(t, text, "style names")
}

func TestTextPptxSlideOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.pptx")
	writeZip(t, path, map[string]string{
		"ppt/slides/slide2.xml":           `<p:sld xmlns:a="x"><a:t>second slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml":           `<p:sld xmlns:a="x"><a:t>first slide</a:t></p:sld>`,
		"ppt/notesSlides/notesSlide1.xml": `<p:notes xmlns:a="x"><a:t>speaker notes</a:t></p:notes>`,
	})

	text, err := Text(path, "pptx")
	require.NoError(t, err)
	assert.Contains(t, text, "first slide")
	assert.Contains(t, text, "second slide")
	assert.Less(t, strings.Index(text, "first slide"), strings.Index(text, "second slide"))
	assert.NotContains(t, text, "speaker notes")
}

func TestTextXlsxSharedStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	writeZip(t, path, map[string]string{
		"xl/sharedStrings.xml": `<sst><si><t>Item</t></si><si><t>Office chairs</t></si></sst>`,
	})

	text, err := Text(path, "xlsx")
	require.NoError(t, err)
	assert.Contains(t, text, "Item")
	assert.Contains(t, text, "Office chairs")
}

func TestTextCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	_, err := Text(path, "docx")
	assert.Error(t, err)
}
