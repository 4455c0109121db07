package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleText = "Jane Teacher\nHigh school chemistry teacher with ten years of classroom experience."

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            doc,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "word/_rels/document.xml.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		contentType, fileName, want string
		wantErr                     bool
	}{
		{"application/pdf", "cv.bin", TypePDF, false},
		{"text/plain; charset=utf-8", "cv", TypeText, false},
		{"application/octet-stream", "CV.DOCX", TypeDOCX, false},
		{"", "cv.doc", TypeDOC, false},
		{"image/png", "cv.png", "", true},
	}
	for _, tt := range tests {
		got, err := DetectType(tt.contentType, tt.fileName)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnsupportedType, tt.fileName)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.fileName)
	}
}

func TestExtractText(t *testing.T) {
	got, err := Extract([]byte("  "+sampleText+"\n\n"), TypeText)
	require.NoError(t, err)
	assert.Equal(t, sampleText, got)
}

func TestExtractTooShort(t *testing.T) {
	_, err := Extract([]byte("too short"), TypeText)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, "Jane Teacher", "High school chemistry teacher with ten years of classroom experience.")
	got, err := Extract(data, TypeDOCX)
	require.NoError(t, err)
	assert.Contains(t, got, "Jane Teacher")
	assert.Contains(t, got, "ten years of classroom experience")
}

func TestExtractLegacyDOC(t *testing.T) {
	// OLE2 compound file signature
	data := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, []byte(sampleText)...)
	_, err := Extract(data, TypeDOC)
	assert.ErrorIs(t, err, ErrLegacyFormat)
}

func TestExtractCorruptDOCX(t *testing.T) {
	_, err := Extract([]byte("definitely not a zip archive at all, but long enough"), TypeDOCX)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract([]byte(sampleText), "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(ctx, "u1", &Resume{Content: sampleText, FileName: "cv.txt"}))
	got, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", got.FileName)

	deleted, err := s.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "resumes/auth0_123/20250304T050607Z-my_cv.pdf", ObjectKey("auth0|123", "../my cv.pdf", at))
}

type fakeBlobs struct {
	keys []string
	err  error
}

func (f *fakeBlobs) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "s3://bucket/" + key, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceUpload(t *testing.T) {
	ctx := context.Background()
	blobs := &fakeBlobs{}
	svc := NewService(NewMemoryStore(), blobs, testLogger())
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	r, err := svc.Upload(ctx, "u1", "cv.txt", "text/plain", []byte(sampleText))
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/resumes/u1/20250102T030405Z-cv.txt", r.BlobURL)
	assert.Len(t, blobs.keys, 1)

	stored, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sampleText, stored.Content)
}

func TestServiceUploadArchiveFailure(t *testing.T) {
	svc := NewService(NewMemoryStore(), &fakeBlobs{err: errors.New("s3 down")}, testLogger())

	r, err := svc.Upload(context.Background(), "u1", "cv.txt", "text/plain", []byte(sampleText))
	require.NoError(t, err)
	assert.Empty(t, r.BlobURL)
}

func TestServiceUploadRejects(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil, testLogger())

	_, err := svc.Upload(context.Background(), "u1", "cv.png", "image/png", []byte(sampleText))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = svc.Upload(context.Background(), "u1", "cv.txt", "text/plain", []byte("short"))
	assert.ErrorIs(t, err, ErrTooShort)
}
