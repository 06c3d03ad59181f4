package torrent_info

import (
	"crypto/sha1"
	"fmt"
	"io"
	"net/url"
	"slices"

	"github.com/mertwole/bencode-cli/bencode"
	"github.com/mertwole/bencode-cli/bencode/decode"
	"github.com/mertwole/bencode-cli/bencode/unmarshal"
	"github.com/mertwole/bencode-cli/bencode/value"
)

type TorrentInfo struct {
	Trackers    []*url.URL
	Pieces      [][sha1.Size]byte
	PieceLength uint64
	TotalLength uint64
	Name        string
	Files       []FileInfo
	Private     bool

	InfoHash [sha1.Size]byte
}

type FileInfo struct {
	Path   []string
	Length uint64
}

type bencodeTorrent struct {
	Announce     string      `bencode:"announce"`
	AnnounceList [][]string  `bencode:"announce-list"`
	Info         bencodeInfo `bencode:"info"`
}

type bencodeInfo struct {
	Pieces      []byte             `bencode:"pieces"`
	PieceLength uint64             `bencode:"piece length"`
	Name        string             `bencode:"name"`
	Files       *[]bencodeFileInfo `bencode:"files"`
	Length      *uint64            `bencode:"length"`
	Private     *bool              `bencode:"private"`
}

type bencodeFileInfo struct {
	Path   []string `bencode:"path"`
	Length uint64   `bencode:"length"`
}

func Decode(reader io.Reader) (*TorrentInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent file: %w", err)
	}

	return FromBytes(data)
}

// FromBytes hashes the info dictionary exactly as it appears in data, which
// is what other clients do even when the file is not canonical.
func FromBytes(data []byte, options ...decode.Option) (*TorrentInfo, error) {
	decoder, err := decode.New(options...)
	if err != nil {
		return nil, err
	}

	decoded, err := decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode torrent file: %w", err)
	}

	torrent, err := FromValue(decoded)
	if err != nil {
		return nil, err
	}

	info, err := infoSpan(decoder, data, decoded)
	if err != nil {
		return nil, err
	}
	torrent.InfoHash = sha1.Sum(info)

	return torrent, nil
}

// infoSpan finds the raw bytes of the info value that ended up in decoded.
// With duplicate info keys that is the one the decoder kept.
func infoSpan(decoder *decode.Decoder, data []byte, decoded value.Value) ([]byte, error) {
	info, _ := decoded.(value.Dictionary).Get("info")

	position := 1
	for position < len(data) && data[position] != 'e' {
		key, valueOffset, err := decoder.DecodeStr(data, position)
		if err != nil {
			return nil, err
		}

		element, end, err := decoder.DecodeValue(data, valueOffset)
		if err != nil {
			return nil, err
		}

		if keyName(key) == "info" && value.Equal(element, info) {
			return data[valueOffset:end], nil
		}
		position = end
	}

	return nil, fmt.Errorf("torrent file has no info dictionary")
}

func keyName(key value.Value) string {
	switch key := key.(type) {
	case value.ByteString:
		return string(key)
	case value.Text:
		return string(key)
	default:
		return ""
	}
}

func FromValue(decoded value.Value) (*TorrentInfo, error) {
	root, ok := decoded.(value.Dictionary)
	if !ok {
		return nil, fmt.Errorf("torrent file must be a dictionary, got %s", decoded.Kind())
	}

	info, ok := root.Get("info")
	if !ok {
		return nil, fmt.Errorf("torrent file has no info dictionary")
	}

	bencodeTorrent := bencodeTorrent{}
	if err := unmarshal.Unmarshal(decoded, &bencodeTorrent); err != nil {
		return nil, err
	}

	trackers, err := collectTrackers(&bencodeTorrent)
	if err != nil {
		return nil, err
	}

	var pieces [][sha1.Size]byte
	for chunk := range slices.Chunk(bencodeTorrent.Info.Pieces, sha1.Size) {
		if len(chunk) != sha1.Size {
			return nil, fmt.Errorf("invalid piece hash size: expected %d and got %d", sha1.Size, len(chunk))
		}

		pieces = append(pieces, [sha1.Size]byte(chunk))
	}

	totalLength := uint64(0)
	files := make([]FileInfo, 0)
	if bencodeTorrent.Info.Files != nil {
		for _, file := range *bencodeTorrent.Info.Files {
			totalLength += file.Length
			files = append(files, FileInfo(file))
		}
	} else if bencodeTorrent.Info.Length == nil {
		return nil, fmt.Errorf("cannot parse either length or file list")
	} else {
		totalLength = *bencodeTorrent.Info.Length
	}

	// Without the original bytes the canonical form is the best guess.
	// FromBytes replaces it with the hash of the raw span.
	serializedInfo, err := bencode.Encode(info)
	if err != nil {
		return nil, err
	}

	return &TorrentInfo{
		Trackers:    trackers,
		Pieces:      pieces,
		PieceLength: bencodeTorrent.Info.PieceLength,
		TotalLength: totalLength,
		Name:        bencodeTorrent.Info.Name,
		Files:       files,
		Private:     bencodeTorrent.Info.Private != nil && *bencodeTorrent.Info.Private,
		InfoHash:    sha1.Sum(serializedInfo),
	}, nil
}

func collectTrackers(torrent *bencodeTorrent) ([]*url.URL, error) {
	trackers := make([]*url.URL, 0)

	if torrent.Announce != "" {
		tracker, err := url.Parse(torrent.Announce)
		if err != nil {
			return nil, fmt.Errorf("failed to parse announce URL %s: %w", torrent.Announce, err)
		}
		trackers = append(trackers, tracker)
	}

	for _, list := range torrent.AnnounceList {
		for _, tracker := range list {
			if tracker == torrent.Announce {
				continue
			}

			trackerURL, err := url.Parse(tracker)
			if err != nil {
				return nil, fmt.Errorf("failed to parse announce-list URL %s: %w", tracker, err)
			}

			trackers = append(trackers, trackerURL)
		}
	}

	return trackers, nil
}
