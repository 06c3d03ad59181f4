package command

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mertwole/bencode-cli/bencode/decode"
	"github.com/mertwole/bencode-cli/magnet_link"
	"github.com/mertwole/bencode-cli/torrent_info"
)

func torrentCommand() *Command {
	var verifyFolder string

	return &Command{
		Name:    "torrent",
		Summary: "Summarize a .torrent metainfo file or a magnet link",
		Usage:   "torrent [--verify DIR] FILE|MAGNET",
		Flags: func(flagSet *pflag.FlagSet) {
			flagSet.StringVar(&verifyFolder, "verify", "", "check downloaded data under DIR against the piece hashes")
		},
		Run: func(context *Context, _ *pflag.FlagSet, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one torrent file or magnet link")
			}

			if strings.HasPrefix(args[0], "magnet:") {
				if verifyFolder != "" {
					return fmt.Errorf("a magnet link carries no piece hashes to verify against")
				}
				return describeMagnetLink(context, args[0])
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			// Piece hashes are binary, so --encoding does not apply here.
			info, err := torrent_info.FromBytes(data,
				decode.WithMaxDepth(context.Config.MaxDepth),
				decode.WithDuplicateKeys(context.Config.DuplicateKeys),
			)
			if err != nil {
				return fmt.Errorf("failed to read torrent %s: %w", args[0], err)
			}

			context.Log.Infow("read torrent", "name", info.Name, "info_hash", hex.EncodeToString(info.InfoHash[:]))

			writeTorrentInfo(context, info)

			if verifyFolder == "" {
				return nil
			}

			verified, err := torrent_info.Verify(info, verifyFolder)
			if err != nil {
				return fmt.Errorf("failed to verify %s: %w", verifyFolder, err)
			}

			context.Log.Infow("verified data", "folder", verifyFolder, "pieces", verified.Count(), "total", verified.Length())

			fmt.Fprintf(context.Stdout, "verified:     %d/%d pieces\n", verified.Count(), verified.Length())
			if verified.Count() != verified.Length() {
				fmt.Fprintf(context.Stdout, "              %s\n", verified.String())
				return fmt.Errorf("%d pieces failed verification", verified.Length()-verified.Count())
			}

			return nil
		},
	}
}

func writeTorrentInfo(context *Context, info *torrent_info.TorrentInfo) {
	w := context.Stdout

	fmt.Fprintf(w, "name:         %s\n", info.Name)
	fmt.Fprintf(w, "info hash:    %s\n", hex.EncodeToString(info.InfoHash[:]))
	fmt.Fprintf(w, "piece length: %d\n", info.PieceLength)
	fmt.Fprintf(w, "pieces:       %d\n", len(info.Pieces))
	fmt.Fprintf(w, "total length: %d\n", info.TotalLength)
	fmt.Fprintf(w, "private:      %t\n", info.Private)

	if len(info.Files) > 0 {
		fmt.Fprintf(w, "files:\n")
		for _, file := range info.Files {
			fmt.Fprintf(w, "  %s (%d)\n", path.Join(file.Path...), file.Length)
		}
	}

	writeTrackers(context, info.Trackers)

	magnet := magnet_link.Encode(&magnet_link.Data{InfoHash: info.InfoHash, Name: info.Name, Trackers: info.Trackers})
	fmt.Fprintf(w, "magnet:       %s\n", magnet)
}

func describeMagnetLink(context *Context, link string) error {
	data, err := magnet_link.Decode(link)
	if err != nil {
		return fmt.Errorf("failed to parse magnet link: %w", err)
	}

	w := context.Stdout
	if data.Name != "" {
		fmt.Fprintf(w, "name:         %s\n", data.Name)
	}
	fmt.Fprintf(w, "info hash:    %s\n", hex.EncodeToString(data.InfoHash[:]))
	writeTrackers(context, data.Trackers)

	return nil
}

func writeTrackers(context *Context, trackers []*url.URL) {
	if len(trackers) == 0 {
		return
	}

	fmt.Fprintf(context.Stdout, "trackers:\n")
	for _, tracker := range trackers {
		fmt.Fprintf(context.Stdout, "  %s\n", tracker)
	}
}
