package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParser(t *testing.T) {
	for _, source := range []string{"generic", "kraken"} {
		p, err := GetParser(source)
		require.NoError(t, err, source)
		assert.NotNil(t, p)
	}

	_, err := GetParser("binance")
	assert.Error(t, err)
	_, err = GetParser("")
	assert.Error(t, err)
}
