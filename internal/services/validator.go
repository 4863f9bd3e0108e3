package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Detected file types.
const (
	FileTypeCSV  = "CSV"
	FileTypeXLSX = "XLSX"
)

// Spreadsheet MIME types.
const (
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool
	DetectedType string
	ContentType  string
	Size         int64
	Errors       []string
}

// FileValidator checks uploaded sales and stock sheets before parsing.
type FileValidator struct {
	maxSizeBytes int64
	allowedTypes map[string]bool
}

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04} // XLSX is a ZIP

var allowedMimeTypes = map[string]bool{
	MimeCSV:  true,
	MimeXLSX: true,
}

var extensionMimeTypes = map[string]string{
	".csv":  MimeCSV,
	".xlsx": MimeXLSX,
}

// NewFileValidator creates a new file validator with the specified maximum file size
func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{
		maxSizeBytes: maxSizeBytes,
		allowedTypes: allowedMimeTypes,
	}
}

// ContentTypeFor maps a filename to its spreadsheet MIME type, or "".
func ContentTypeFor(filename string) string {
	return extensionMimeTypes[strings.ToLower(filepath.Ext(filename))]
}

// ValidateFile reads reader fully and validates its content.
func (v *FileValidator) ValidateFile(reader io.Reader, filename, contentType string) (*ValidationResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return v.ValidateBytes(data, filename, contentType), nil
}

// ValidateBytes collects every problem with the file instead of stopping at
// the first one.
func (v *FileValidator) ValidateBytes(data []byte, filename, contentType string) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		ContentType: contentType,
		Size:        int64(len(data)),
		Errors:      []string{},
	}
	fail := func(err error) {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err := v.ValidateFilename(filename); err != nil {
		fail(err)
	}
	if err := v.ValidateMimeType(contentType); err != nil {
		fail(err)
	}
	if err := v.ValidateFileSize(result.Size); err != nil {
		fail(err)
	}

	detected, err := v.ValidateMagicBytes(data)
	if err != nil {
		fail(err)
		return result
	}
	result.DetectedType = detected
	if !isContentTypeMatch(contentType, detected) {
		fail(errors.New("MIME type does not match file content"))
	}
	return result
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}
	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}
	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}
	if _, ok := extensionMimeTypes[ext]; !ok {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}
	return nil
}

// ValidateMimeType validates the MIME type is allowed
func (v *FileValidator) ValidateMimeType(contentType string) error {
	if contentType == "" {
		return errors.New("MIME type cannot be empty")
	}
	if !v.allowedTypes[contentType] {
		return fmt.Errorf("unsupported MIME type: %s", contentType)
	}
	return nil
}

// ValidateMagicBytes detects the file type from its content
func (v *FileValidator) ValidateMagicBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty file")
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FileTypeXLSX, nil
	}
	if isTextContent(data) {
		return FileTypeCSV, nil
	}
	return "", errors.New("unsupported file type based on content")
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}
	if size == 0 {
		return errors.New("empty file")
	}
	if size > v.maxSizeBytes {
		return fmt.Errorf("file size (%d bytes) exceeds maximum allowed size (%d bytes)", size, v.maxSizeBytes)
	}
	return nil
}

func isContentTypeMatch(contentType, detectedType string) bool {
	switch detectedType {
	case FileTypeCSV:
		return contentType == MimeCSV
	case FileTypeXLSX:
		return contentType == MimeXLSX
	default:
		return false
	}
}

// isTextContent accepts UTF-8 text without NUL bytes. Client names and
// product descriptions carry accents, so non-ASCII letters are fine.
func isTextContent(data []byte) bool {
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
		// don't split a multi-byte rune at the cut
		for len(sample) > 0 && !utf8.RuneStart(data[len(sample)]) {
			sample = sample[:len(sample)-1]
		}
	}

	if bytes.IndexByte(sample, 0x00) >= 0 || !utf8.Valid(sample) {
		return false
	}

	control := 0
	total := 0
	for _, r := range string(sample) {
		total++
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			control++
		}
	}
	return float64(control)/float64(total) < 0.05
}
