package torrent_info

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mertwole/bencode-cli/bitfield"
)

const maxPieceLength = 1 << 30

type dataFile struct {
	path   string
	length uint64
}

// Verify hashes the torrent's data under folder and marks every piece whose
// SHA-1 matches. Missing or short files count as zeros, so the pieces they
// cover stay unmarked.
func Verify(torrent *TorrentInfo, folder string) (bitfield.Bitfield, error) {
	verified := bitfield.NewEmpty(len(torrent.Pieces))
	if torrent.PieceLength == 0 || torrent.PieceLength > maxPieceLength {
		return verified, fmt.Errorf("unsupported piece length %d", torrent.PieceLength)
	}

	files, err := dataFiles(torrent, folder)
	if err != nil {
		return verified, err
	}

	readers := make([]io.Reader, 0, len(files))
	for _, file := range files {
		handle, err := os.Open(file.path)
		if errors.Is(err, fs.ErrNotExist) {
			readers = append(readers, io.LimitReader(zeros{}, int64(file.length)))
			continue
		}
		if err != nil {
			return verified, fmt.Errorf("failed to open %s: %w", file.path, err)
		}
		defer handle.Close()

		readers = append(readers, io.LimitReader(io.MultiReader(handle, zeros{}), int64(file.length)))
	}
	data := io.MultiReader(readers...)

	piece := make([]byte, torrent.PieceLength)
	for i, pieceHash := range torrent.Pieces {
		read, err := io.ReadFull(data, piece)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return verified, fmt.Errorf("failed to read piece #%d: %w", i, err)
		}

		if read > 0 && sha1.Sum(piece[:read]) == pieceHash {
			verified.AddPiece(i)
		}
	}

	return verified, nil
}

func dataFiles(torrent *TorrentInfo, folder string) ([]dataFile, error) {
	if !filepath.IsLocal(torrent.Name) {
		return nil, fmt.Errorf("torrent name %q escapes the data folder", torrent.Name)
	}

	if len(torrent.Files) == 0 {
		return []dataFile{{path: filepath.Join(folder, torrent.Name), length: torrent.TotalLength}}, nil
	}

	root := filepath.Join(folder, torrent.Name)
	files := make([]dataFile, 0, len(torrent.Files))
	for _, file := range torrent.Files {
		relativePath := filepath.Join(file.Path...)
		if !filepath.IsLocal(relativePath) {
			return nil, fmt.Errorf("file path %q escapes the data folder", relativePath)
		}

		files = append(files, dataFile{path: filepath.Join(root, relativePath), length: file.Length})
	}

	return files, nil
}

type zeros struct{}

func (zeros) Read(buffer []byte) (int, error) {
	clear(buffer)
	return len(buffer), nil
}
