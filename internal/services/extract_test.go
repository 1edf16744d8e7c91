package services

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWithPart(t *testing.T, name, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDocxText(t *testing.T) {
	t.Run("OneLinePerParagraph", func(t *testing.T) {
		document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Question 1 ?</w:t></w:r></w:p>
    <w:p><w:r><w:t>Option </w:t></w:r><w:r><w:t>A</w:t></w:r></w:p>
  </w:body>
</w:document>`

		text, err := extractDocxText(zipWithPart(t, "word/document.xml", document))
		require.NoError(t, err)
		assert.Equal(t, "Question 1 ?\nOption A\n", text)
	})

	t.Run("TextOutsideRunsIgnored", func(t *testing.T) {
		document := `<w:document xmlns:w="x"><w:body>
<w:p><w:pPr>style noise</w:pPr><w:r><w:t>contenu</w:t></w:r></w:p>
</w:body></w:document>`

		text, err := extractDocxText(zipWithPart(t, "word/document.xml", document))
		require.NoError(t, err)
		assert.Equal(t, "contenu\n", text)
	})

	t.Run("MissingDocumentPart", func(t *testing.T) {
		_, err := extractDocxText(zipWithPart(t, "other.xml", "<a/>"))
		assert.Error(t, err)
	})

	t.Run("NotAnArchive", func(t *testing.T) {
		_, err := extractDocxText([]byte("plain text"))
		assert.Error(t, err)
	})
}

func TestExtractOdtText(t *testing.T) {
	content := `<?xml version="1.0"?>
<office:document-content xmlns:office="o" xmlns:text="t">
  <office:body>
    <text:h>Titre</text:h>
    <text:p>Premier paragraphe</text:p>
    <text:p>Second <text:span>paragraphe</text:span></text:p>
  </office:body>
</office:document-content>`

	text, err := extractOdtText(zipWithPart(t, "content.xml", content))
	require.NoError(t, err)
	assert.Equal(t, "Titre\nPremier paragraphe\nSecond paragraphe\n", text)
}
