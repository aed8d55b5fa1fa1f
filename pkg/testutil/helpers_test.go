package testutil

import (
	"io"
	"mime"
	"mime/multipart"
	"os"
	"strings"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "dados.csv", SampleDatasetCSV)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back %s: %v", path, err)
	}
	if string(data) != SampleDatasetCSV {
		t.Errorf("WriteFile() content = %q, expected %q", data, SampleDatasetCSV)
	}
}

func TestMultipartFile(t *testing.T) {
	body, contentType := MultipartFile(t, "file", "dados.csv", []byte("DATE\n"))

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("ParseMediaType() error = %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data, got %s", mediaType)
	}

	reader := multipart.NewReader(body, params["boundary"])
	part, err := reader.NextPart()
	if err != nil {
		t.Fatalf("NextPart() error = %v", err)
	}
	if part.FormName() != "file" || part.FileName() != "dados.csv" {
		t.Errorf("unexpected part %s/%s", part.FormName(), part.FileName())
	}
	data, err := io.ReadAll(part)
	if err != nil {
		t.Fatalf("failed to read part: %v", err)
	}
	if !strings.HasPrefix(string(data), "DATE") {
		t.Errorf("unexpected part content %q", data)
	}
}
