// Package testutil provides common utility functions for testing.
package testutil

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
)

// SampleDatasetCSV is a small dataset in the extractor output format. SELIC
// has no variation column and no February value.
const SampleDatasetCSV = "DATE;IPCA Variacao (%);IPCA Fator;SELIC Fator\n" +
	"1994-01-01;41,31;1,4131;1,42\n" +
	"1994-02-01;40,27;1,4027;\n" +
	"1994-03-01;42,75;1,4275;1,44\n"

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// MultipartFile builds a multipart body holding one file under field and
// returns it with its content type.
func MultipartFile(t testing.TB, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
