package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintResult_PlainWhenNotTerminal(t *testing.T) {
	buf := &bytes.Buffer{}
	u := New(buf)
	assert.False(t, u.IsTTY)

	require.NoError(t, u.PrintResult(LabelData, "[(1, 'alice'), (2, 'bob')]"))
	assert.Equal(t, "Data: [(1, 'alice'), (2, 'bob')]\n", buf.String())
}

func TestPrintResult_ErrorLine(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, New(buf).PrintResult(LabelError, "[connection_failed] failed to connect: refused"))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "Error: "))
}

func TestFormat_StyledKeepsText(t *testing.T) {
	u := &UI{IsTTY: true}
	got := u.Format(LabelData, "[]")
	assert.True(t, strings.HasSuffix(got, " []"))
	assert.Contains(t, got, "Data:")

	u.SetNoColor(true)
	assert.Equal(t, "Data: []", u.Format(LabelData, "[]"))
}

func TestKeyValue(t *testing.T) {
	u := New(&bytes.Buffer{})
	assert.Equal(t, "Version:     v1.2.0", u.KeyValue("Version", "v1.2.0"))
}
