package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lsys/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBooks(t *testing.T) {
	in := `isbn,name,published,authors
9780441013593,Dune,1965,Frank Herbert
9780201633610, "Design Patterns",1994,"Gamma; Helm ;Johnson;;Vlissides"
42,No Authors
`
	books, err := parseBooks(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, db.NewBook{ISBN: 9780441013593, Name: "Dune", Published: "1965", Authors: []string{"Frank Herbert"}}, books[0])
	assert.Equal(t, "Design Patterns", books[1].Name)
	assert.Equal(t, []string{"Gamma", "Helm", "Johnson", "Vlissides"}, books[1].Authors)
	assert.Empty(t, books[2].Authors)
	assert.Empty(t, books[2].Published)
}

func TestParseBooks_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"bad isbn":   "abc,Dune\n",
		"no name":    "1,\n",
		"one column": "1\n",
	} {
		_, err := parseBooks(strings.NewReader(in))
		assert.Error(t, err, name)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestSeedThenHolds(t *testing.T) {
	dir := t.TempDir()
	dsn := "sqlite://" + filepath.Join(dir, "lsys.db")
	csvPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("1,Dune,1965,Frank Herbert\n2,Emma,1815,Jane Austen\n"), 0o600))

	out := run(t, "--db", dsn, "seed", "--csv", csvPath)
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Emma")

	out = run(t, "--db", dsn, "holds", "--state", "available")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "2 of 2")

	out = run(t, "--db", dsn, "holds", "--state", "reserved")
	assert.Contains(t, out, "0 of 0")
}

func TestReadPassword_KeepsSurroundingSpaces(t *testing.T) {
	orig := readSecret
	t.Cleanup(func() { readSecret = orig })
	readSecret = func() ([]byte, error) { return []byte("  two words  "), nil }

	cmd := newRootCmd()
	cmd.SetErr(&bytes.Buffer{})
	pw, err := readPassword(cmd, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "  two words  ", pw)
}
