package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_Defaults(t *testing.T) {
	o, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "students", o.recordType)
	assert.Equal(t, time.Now().UTC().Format(time.DateOnly), o.date)
	assert.Equal(t, ".", o.outDir)
}

func TestParseFlags_Empty(t *testing.T) {
	_, err := parseFlags([]string{"-type", ""})
	require.Error(t, err)
}

func TestRun_WritesCSV(t *testing.T) {
	for _, name := range []string{"CONFIG_FILE", "DATA_SOURCE", "DATABASE_URL", "DB_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(name, "")
	}
	t.Setenv("MOCK_LATENCY", "0s")
	t.Chdir(t.TempDir()) // keep godotenv away from any real .env

	out := filepath.Join(t.TempDir(), "exports")
	var stdout bytes.Buffer

	err := run([]string{"-type", "attendance", "-date", "2024-03-01", "-out", out}, &stdout)
	require.NoError(t, err)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^emis_data_\d{4}-\d{2}-\d{2}\.csv$`, entries[0].Name())

	content, err := os.ReadFile(filepath.Join(out, entries[0].Name()))
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	assert.Equal(t, "Date,Class,Present,Absent,Percentage", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `"2024-03-01",`))

	assert.Contains(t, stdout.String(), "Data downloaded successfully")
}

func TestRun_UnknownTypeHasNoData(t *testing.T) {
	for _, name := range []string{"CONFIG_FILE", "DATA_SOURCE", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(name, "")
	}
	t.Setenv("MOCK_LATENCY", "0s")
	t.Chdir(t.TempDir())

	out := t.TempDir()
	var stdout bytes.Buffer

	require.NoError(t, run([]string{"-type", "parents", "-out", out}, &stdout))
	assert.Contains(t, stdout.String(), "No Data Available")
	assert.Contains(t, stdout.String(), "No data available to download")

	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries)
}
