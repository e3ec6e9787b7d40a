package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/kryptogain/backend/src/logger"
)

// allowedClientContentTypes lists the Content-Type values clients may declare
// for a CSV export upload. Exchanges and spreadsheets disagree on what a CSV
// is, so this is deliberately loose on the text side.
var allowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
	"text/plain":               true,
	"application/octet-stream": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": false,
}

// ValidateClientContentType checks the Content-Type header declared by the
// client on the upload part.
func ValidateClientContentType(contentType string) error {
	if allowed, exists := allowedClientContentTypes[strings.ToLower(contentType)]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for CSV upload", contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes sniffs the first bytes of the file and
// rejects anything whose detected type is not plausibly CSV text. The reader
// is rewound afterwards so the parser sees the whole file.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
		// Generic fallback. The CSV parser will reject anything that is
		// not actually row-shaped text.
		"application/octet-stream": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not consistent with a CSV file", detectedContentType)
	}

	logger.L.Debug("File content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
