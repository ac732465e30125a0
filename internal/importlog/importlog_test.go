package importlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(ts time.Time, filename string) Entry {
	return Entry{
		Timestamp:  ts,
		UserID:     "u1",
		Filename:   filename,
		Format:     "delimited",
		Imported:   12,
		Duplicates: 3,
		Failed:     1,
		Notes:      "mbank january",
	}
}

func TestAppendAndRead(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 1, 31, 10, 30, 0, 0, time.UTC)

	require.NoError(t, Append(dir, []Entry{sampleEntry(ts, "jan.csv")}))
	require.NoError(t, Append(dir, []Entry{sampleEntry(ts.Add(time.Hour), "feb.csv")}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "jan.csv", entries[0].Filename)
	assert.Equal(t, "feb.csv", entries[1].Filename)
	assert.True(t, entries[0].Timestamp.Equal(ts))
	assert.Equal(t, 12, entries[0].Imported)
	assert.Equal(t, 3, entries[0].Duplicates)
	assert.Equal(t, 1, entries[0].Failed)

	// The header is written exactly once.
	raw, err := os.ReadFile(filepath.Join(dir, "logs", "import-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "timestamp,user_id"))
}

func TestRead_MissingFile(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnmarshalEntry_RoundTrip(t *testing.T) {
	ts := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	in := sampleEntry(ts, "statement.sta")

	out, err := UnmarshalEntry(MarshalEntry(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	_, err := UnmarshalEntry([]string{"too", "short"})
	assert.Error(t, err)

	row := MarshalEntry(sampleEntry(time.Now(), "x.csv"))
	row[colImported] = "many"
	_, err = UnmarshalEntry(row)
	assert.Error(t, err)
}
