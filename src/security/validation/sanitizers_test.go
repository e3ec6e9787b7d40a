package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+1234", "'+1234"},
		{"-42", "'-42"},
		{"@cmd", "'@cmd"},
		{"  =EXEC()", "'  =EXEC()"},
		{"BTC", "BTC"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeForFormulaInjection(tt.input), tt.input)
	}
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "BTC", StripUnprintable("B\x00T\x07C"))
	assert.Equal(t, "a\tb\nc\r", StripUnprintable("a\tb\nc\r"))
	assert.Equal(t, "plain", StripUnprintable("plain"))
}

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"text/csv", "application/csv", "text/plain", "application/vnd.ms-excel"} {
		assert.NoError(t, ValidateClientContentType(ct), ct)
	}
	assert.Error(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Error(t, ValidateClientContentType("image/png"))
	assert.Error(t, ValidateClientContentType(""))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csvFile := strings.NewReader("date,type,amount\n2024-01-01,buy,1\n")
	detected, err := ValidateFileContentByMagicBytes(csvFile)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)

	// The reader must be rewound for the parser.
	rest := make([]byte, 4)
	n, _ := csvFile.Read(rest)
	assert.Equal(t, "date", string(rest[:n]))

	pngFile := strings.NewReader("\x89PNG\r\n\x1a\nrestoffile")
	_, err = ValidateFileContentByMagicBytes(pngFile)
	assert.Error(t, err)
}
