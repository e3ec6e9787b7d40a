package processors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetJurisdictions(t *testing.T) {
	t.Cleanup(func() { setJurisdictions(defaultJurisdictions()) })
}

func TestDefaultJurisdictionsPresent(t *testing.T) {
	j, err := GetJurisdiction("us-short")
	require.NoError(t, err)
	assert.True(t, j.ShortTermRate.Equal(dec("37")))
	assert.True(t, j.LongTermRate.Equal(dec("20")))

	for _, id := range []string{"us-long", "flat-30", "flat-20"} {
		_, err := GetJurisdiction(id)
		assert.NoError(t, err, id)
	}

	_, err = GetJurisdiction("narnia")
	assert.Error(t, err)
}

func TestJurisdictionsKeepDeclarationOrder(t *testing.T) {
	list := Jurisdictions()
	require.Len(t, list, 4)
	assert.Equal(t, "us-short", list[0].ID)
	assert.Equal(t, "us-long", list[1].ID)
	assert.Equal(t, "flat-30", list[2].ID)
	assert.Equal(t, "flat-20", list[3].ID)
}

func TestLoadJurisdictionsFromFile(t *testing.T) {
	resetJurisdictions(t)

	path := filepath.Join(t.TempDir(), "jurisdictions.json")
	payload := `[
		{"id": "pt-flat", "name": "Portugal Flat", "short_term_rate": "28", "long_term_rate": "28", "description": "Flat 28%"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	require.NoError(t, LoadJurisdictions(path))

	j, err := GetJurisdiction("pt-flat")
	require.NoError(t, err)
	assert.True(t, j.ShortTermRate.Equal(dec("28")))

	// The file replaces the table wholesale.
	_, err = GetJurisdiction("us-short")
	assert.Error(t, err)
}

func TestLoadJurisdictionsRejectsBadData(t *testing.T) {
	resetJurisdictions(t)
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.json")
	assert.Error(t, LoadJurisdictions(missing))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o600))
	assert.Error(t, LoadJurisdictions(empty))

	badRate := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badRate, []byte(`[{"id": "x", "short_term_rate": "-5", "long_term_rate": "20"}]`), 0o600))
	assert.Error(t, LoadJurisdictions(badRate))

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`[{"name": "anon", "short_term_rate": "10", "long_term_rate": "10"}]`), 0o600))
	assert.Error(t, LoadJurisdictions(noID))

	// Failed loads leave the previous table intact.
	_, err := GetJurisdiction("us-short")
	assert.NoError(t, err)
}
