package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/kore/codec"
	"github.com/Neumenon/kore/kore"
)

const sumText = `Lbl'Plus'Int{}(X:SortInt{}, \dv{SortInt{}}("1"))`

func writePattern(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDecodePattern_TextAndBinary(t *testing.T) {
	want, err := FromString(sumText).Pattern()
	require.NoError(t, err)

	fromText, err := DecodePattern([]byte(sumText + "\n"))
	require.NoError(t, err)
	assert.True(t, want.Equal(fromText))

	for _, v := range []codec.Version{{Major: 1, Minor: 1, Patch: 0}, codec.CurrentVersion} {
		data := codec.Serialize(want, codec.WithVersion(v), codec.WithEmitSize())
		fromBinary, err := DecodePattern(data)
		require.NoError(t, err, v.String())
		assert.True(t, want.Equal(fromBinary), v.String())
	}
}

func TestDecodePattern_Errors(t *testing.T) {
	_, err := DecodePattern([]byte("X:"))
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)

	data := codec.Serialize(nestedPattern(t, 3), codec.WithEmitSize())
	_, err = DecodePattern(data[:len(data)-1])
	var fe *codec.FormatError
	assert.ErrorAs(t, err, &fe)

	_, err = DecodePattern([]byte(deepText(4)), codec.WithMaxDepth(4))
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nesting too deep", se.Message)
}

func TestLoadPattern(t *testing.T) {
	want, err := FromString(sumText).Pattern()
	require.NoError(t, err)

	textPath := writePattern(t, "sum.kore", []byte(sumText))
	binPath := writePattern(t, "sum.bin", codec.Serialize(want, codec.WithEmitSize()))

	for _, path := range []string{textPath, binPath} {
		got, err := LoadPattern(path)
		require.NoError(t, err, path)
		assert.True(t, want.Equal(got), path)
	}

	_, err = LoadPattern(filepath.Join(t.TempDir(), "missing.kore"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func nestedPattern(t *testing.T, levels int) kore.Pattern {
	t.Helper()
	p, err := FromString(deepText(levels)).Pattern()
	require.NoError(t, err)
	return p
}
