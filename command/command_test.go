package command

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mertwole/bencode-cli/bencode"
	"github.com/mertwole/bencode-cli/bencode/codec_error"
	"github.com/mertwole/bencode-cli/bencode/value"
	"github.com/mertwole/bencode-cli/convert"
	"github.com/mertwole/bencode-cli/version"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(stdin string, args ...string) result {
	var stdout, stderr bytes.Buffer
	err := Run(args, strings.NewReader(stdin), &stdout, &stderr)

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name string, contents []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	return path
}

func TestVersion(t *testing.T) {
	output := run("", "version")
	require.NoError(t, output.err)
	require.Equal(t, "bencode-cli "+version.Version+"\n", output.stdout)
}

func TestUsageErrors(t *testing.T) {
	require := require.New(t)

	output := run("")
	require.Error(output.err)
	require.Contains(output.stderr, "commands:")

	output = run("", "unknown")
	require.ErrorContains(output.err, `unknown command "unknown"`)

	output = run("", "--duplicate-keys", "random", "decode")
	require.Error(output.err)

	output = run("", "--help")
	require.NoError(output.err)
	require.Contains(output.stderr, "--max-depth")

	output = run("", "decode", "--format", "xml")
	require.ErrorContains(output.err, "unknown format")
}

func TestDecodeJSON(t *testing.T) {
	output := run("d3:bar4:spam3:fooi42ee", "decode", "--compact")
	require.NoError(t, output.err)
	require.Equal(t, `{"bar":"spam","foo":42}`+"\n", output.stdout)
}

func TestDecodeFromFile(t *testing.T) {
	path := writeFile(t, "input.bencode", []byte("l4:spami42ee"))

	output := run("", "decode", "-f", "yaml", path)
	require.NoError(t, output.err)
	require.Equal(t, "- spam\n- 42\n", output.stdout)
}

func TestDecodeCBOR(t *testing.T) {
	require := require.New(t)

	output := run("l4:spami42ee", "decode", "--format", "cbor", "-")
	require.NoError(output.err)

	decoded, err := convert.FromCBOR([]byte(output.stdout))
	require.NoError(err)

	encoded, err := bencode.Encode(decoded)
	require.NoError(err)
	require.Equal("l4:spami42ee", string(encoded))
}

func TestDecodeFailures(t *testing.T) {
	require := require.New(t)

	output := run("i01e", "decode")
	require.ErrorIs(output.err, codec_error.ErrInvalidInteger)

	output = run("i1ei2e", "decode")
	require.ErrorIs(output.err, codec_error.ErrTrailingData)

	output = run("llee", "--max-depth", "1", "decode")
	require.ErrorIs(output.err, codec_error.ErrNestingTooDeep)

	output = run("d1:ai1e1:ai2ee", "--duplicate-keys", "reject", "decode")
	require.ErrorIs(output.err, codec_error.ErrDuplicateKey)

	output = run("", "decode", "a", "b")
	require.Error(output.err)

	output = run("", "decode", filepath.Join(t.TempDir(), "missing"))
	require.Error(output.err)
}

func TestDecodeWithEncoding(t *testing.T) {
	output := run("4:caf\xe9", "--encoding", "latin1", "decode")
	require.NoError(t, output.err)
	require.Equal(t, `"café"`+"\n", output.stdout)
}

func TestEncode(t *testing.T) {
	require := require.New(t)

	output := run(`{"foo": 42, "bar": "spam"}`, "encode")
	require.NoError(output.err)
	require.Equal("d3:bar4:spam3:fooi42ee", output.stdout)

	output = run("foo: 42\nbar: [spam, true]\n", "encode", "--format", "yaml")
	require.NoError(output.err)
	require.Equal("d3:barl4:spami1ee3:fooi42ee", output.stdout)

	output = run(`{"price": 1.5}`, "encode")
	require.ErrorIs(output.err, codec_error.ErrUnsupportedType)
	require.Empty(output.stdout)

	output = run(`"café"`, "--encoding", "latin1", "encode")
	require.NoError(output.err)
	require.Equal("4:caf\xe9", output.stdout)
}

func TestEncodeCBOR(t *testing.T) {
	tree, err := bencode.Decode([]byte("d4:data2:\x00\xffe"))
	require.NoError(t, err)

	cborData, err := convert.ToCBOR(tree)
	require.NoError(t, err)

	output := run(string(cborData), "encode", "-f", "cbor")
	require.NoError(t, output.err)
	require.Equal(t, "d4:data2:\x00\xffe", output.stdout)

	cborData, err = convert.ToCBOR(value.Text("café"))
	require.NoError(t, err)

	output = run(string(cborData), "-e", "latin1", "encode", "-f", "cbor")
	require.NoError(t, output.err)
	require.Equal(t, "4:caf\xe9", output.stdout)
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	output := run("d3:bar4:spam3:fooi42ee", "validate")
	require.NoError(output.err)
	require.Equal("stdin: valid dictionary, canonical\n", output.stdout)

	output = run("d3:fooi42e3:bar4:spame", "validate")
	require.NoError(output.err)
	require.Equal("stdin: valid dictionary, not canonical\n", output.stdout)

	output = run("d3:fooi42e3:bar4:spame", "validate", "--strict")
	require.ErrorIs(output.err, errNotCanonical)

	output = run("d4:caf\xe9i1ee", "-e", "latin1", "validate", "--strict")
	require.NoError(output.err)
	require.Equal("stdin: valid dictionary, canonical\n", output.stdout)

	output = run("l4:spam", "validate")
	require.ErrorIs(output.err, codec_error.ErrUnexpectedEndOfData)
	require.Equal("stdin: invalid: unexpected end of data at offset 7\n", output.stdout)
}

func TestTorrent(t *testing.T) {
	require := require.New(t)

	pieces := sha1.Sum([]byte("piece"))
	info := map[string]any{
		"name":         "dir",
		"piece length": 16384,
		"pieces":       pieces[:],
		"files": []map[string]any{
			{"path": []string{"a", "b.txt"}, "length": 10},
		},
	}
	torrent, err := bencode.Encode(map[string]any{
		"announce": "http://tracker.example/announce",
		"info":     info,
	})
	require.NoError(err)

	encodedInfo, err := bencode.Encode(info)
	require.NoError(err)
	infoHash := sha1.Sum(encodedInfo)

	path := writeFile(t, "test.torrent", torrent)

	output := run("", "--encoding", "utf-8", "torrent", path)
	require.NoError(output.err)
	require.Contains(output.stdout, "name:         dir\n")
	require.Contains(output.stdout, "info hash:    "+hex.EncodeToString(infoHash[:])+"\n")
	require.Contains(output.stdout, "pieces:       1\n")
	require.Contains(output.stdout, "total length: 10\n")
	require.Contains(output.stdout, "  a/b.txt (10)\n")
	require.Contains(output.stdout, "  http://tracker.example/announce\n")

	require.Contains(output.stdout, "magnet:       magnet:?xt=urn:btih:"+hex.EncodeToString(infoHash[:])+"&dn=dir&tr=")

	output = run("", "torrent")
	require.Error(output.err)
}

func TestTorrentVerify(t *testing.T) {
	require := require.New(t)

	data := []byte("0123456789")
	pieces := sha1.Sum(data)
	torrent, err := bencode.Encode(map[string]any{
		"info": map[string]any{
			"name":         "file.txt",
			"piece length": 16,
			"pieces":       pieces[:],
			"length":       len(data),
		},
	})
	require.NoError(err)

	path := writeFile(t, "test.torrent", torrent)
	folder := t.TempDir()

	output := run("", "torrent", "--verify", folder, path)
	require.ErrorContains(output.err, "1 pieces failed verification")
	require.Contains(output.stdout, "verified:     0/1 pieces\n")

	require.NoError(os.WriteFile(filepath.Join(folder, "file.txt"), data, 0o644))

	output = run("", "torrent", "--verify", folder, path)
	require.NoError(output.err)
	require.Contains(output.stdout, "verified:     1/1 pieces\n")
}

func TestMagnetLink(t *testing.T) {
	require := require.New(t)

	infoHash := sha1.Sum([]byte("info"))
	link := "magnet:?xt=urn:btih:" + hex.EncodeToString(infoHash[:]) + "&dn=name&tr=udp%3A%2F%2Ftracker.example%3A6969"

	output := run("", "torrent", link)
	require.NoError(output.err)
	require.Equal(
		"name:         name\n"+
			"info hash:    "+hex.EncodeToString(infoHash[:])+"\n"+
			"trackers:\n"+
			"  udp://tracker.example:6969\n",
		output.stdout,
	)

	output = run("", "torrent", "--verify", t.TempDir(), link)
	require.Error(output.err)

	output = run("", "torrent", "magnet:?xt=urn:btih:zz")
	require.Error(output.err)
}

func TestDebugLogging(t *testing.T) {
	output := run("i1e", "--debug", "decode")
	require.NoError(t, output.err)
	require.Equal(t, "1\n", output.stdout)
	require.Contains(t, output.stderr, "decoded input")
}

func TestLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "cli.log")

	output := run("i01e", "--log-file", logFile, "decode")
	require.Error(t, output.err)

	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(contents), "command failed")
}
