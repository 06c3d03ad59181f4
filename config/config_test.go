package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mertwole/bencode-cli/bencode/decode"
)

func TestDefaults(t *testing.T) {
	require := require.New(t)
	t.Setenv("BENCODE_DEBUG", "")

	c := NewConfig()
	require.False(c.Debug)
	require.Empty(c.LogFile)
	require.Empty(c.Encoding)
	require.Equal(decode.DefaultMaxDepth, c.MaxDepth)
	require.Equal(decode.LastWins, c.DuplicateKeys)
	require.Len(c.DecodeOptions(), 2)
	require.Len(c.EncodeOptions(), 1)

	t.Setenv("BENCODE_DEBUG", "1")
	require.True(NewConfig().Debug)
}

func TestOptions(t *testing.T) {
	require := require.New(t)

	c := NewConfig(
		WithDebug(true),
		WithEncoding("latin1"),
		WithMaxDepth(8),
		WithDuplicateKeys(decode.RejectDuplicates),
		WithLoggingPrefix("test"),
	)

	require.True(c.Debug)
	require.Equal("latin1", c.Encoding)
	require.Equal(8, c.MaxDepth)
	require.Equal(decode.RejectDuplicates, c.DuplicateKeys)
	require.Len(c.DecodeOptions(), 3)
	require.Len(c.EncodeOptions(), 2)
}

func TestParseDuplicateKeys(t *testing.T) {
	require := require.New(t)

	for name, expected := range map[string]decode.DuplicateKeys{
		"last":   decode.LastWins,
		"first":  decode.FirstWins,
		"reject": decode.RejectDuplicates,
	} {
		policy, err := ParseDuplicateKeys(name)
		require.NoError(err)
		require.Equal(expected, policy)
	}

	_, err := ParseDuplicateKeys("random")
	require.Error(err)
}

func TestConsoleLogging(t *testing.T) {
	require := require.New(t)

	var console bytes.Buffer
	c := NewConfig(WithDebug(true), WithConsole(&console))

	log := c.Logger("decode", false)
	log.Debugw("decoded input", "size", 12)
	require.NoError(log.Sync())

	require.Contains(console.String(), "decoded input")
	require.Contains(console.String(), "bencode-cli:decode")

	console.Reset()
	log = c.Logger("inspect", true)
	log.Infow("opened file")
	require.Empty(console.String())
}

func TestQuietWithoutDebug(t *testing.T) {
	var console bytes.Buffer
	c := NewConfig(WithDebug(false), WithConsole(&console))

	c.Logger("decode", false).Infow("decoded input")
	require.Empty(t, console.String())
}

func TestFileLogging(t *testing.T) {
	require := require.New(t)

	logFile := filepath.Join(t.TempDir(), "test.log")
	c := NewConfig(WithDebug(false), WithLogFile(logFile))

	log := c.Logger("", true)
	log.Infow("opened file", "path", "a.torrent")
	log.Debugw("filtered out")
	_ = log.Sync()

	contents, err := os.ReadFile(logFile)
	require.NoError(err)
	require.Contains(string(contents), `"opened file"`)
	require.Contains(string(contents), `"source":"bencode-cli"`)
	require.NotContains(string(contents), "filtered out")
}
