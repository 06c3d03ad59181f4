package magnet_link

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const scheme = "magnet"
const infoHashPrefix = "urn:btih:"
const taggedInfoHashPrefix = "urn:btmh:"

type Data struct {
	InfoHash [sha1.Size]byte
	Name     string
	Trackers []*url.URL
}

// Encode builds a BitTorrent v1 magnet link with a hex info hash.
func Encode(data *Data) string {
	query := make([]string, 0, 2+len(data.Trackers))
	query = append(query, "xt="+infoHashPrefix+hex.EncodeToString(data.InfoHash[:]))

	if data.Name != "" {
		query = append(query, "dn="+url.QueryEscape(data.Name))
	}
	for _, tracker := range data.Trackers {
		query = append(query, "tr="+url.QueryEscape(tracker.String()))
	}

	return scheme + ":?" + strings.Join(query, "&")
}

func Decode(link string) (*Data, error) {
	uri, err := url.Parse(link)
	if err != nil {
		return nil, err
	}

	if uri.Scheme != scheme {
		return nil, fmt.Errorf("invalid scheme: %s", uri.Scheme)
	}

	query := uri.Query()

	infoHashes := query["xt"]
	if len(infoHashes) != 1 {
		return nil, fmt.Errorf("expected exactly one info hash in query, got %d", len(infoHashes))
	}

	infoHash := infoHashes[0]
	var parsedInfoHash [sha1.Size]byte

	switch {
	case strings.HasPrefix(infoHash, infoHashPrefix):
		infoHash = infoHash[len(infoHashPrefix):]

		var decoded []byte
		if len(infoHash) == sha1.Size*2 {
			decoded, err = hex.DecodeString(infoHash)
		} else {
			decoded, err = base32.StdEncoding.DecodeString(strings.ToUpper(infoHash))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid info hash %s: %w", infoHash, err)
		}
		if len(decoded) != sha1.Size {
			return nil, fmt.Errorf("invalid info hash length: expected %d, got %d", sha1.Size, len(decoded))
		}

		parsedInfoHash = [sha1.Size]byte(decoded)
	case strings.HasPrefix(infoHash, taggedInfoHashPrefix):
		return nil, fmt.Errorf("multihash info hashes are not supported: %s", infoHash)
	default:
		return nil, fmt.Errorf(
			"invalid info hash prefix: %s, expected one of urn:btih: or urn:btmh: ",
			infoHash,
		)
	}

	trackerUrls := make([]*url.URL, 0)
	for _, tracker := range query["tr"] {
		trackerURL, err := url.Parse(tracker)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tracker URL %s: %w", tracker, err)
		}

		trackerUrls = append(trackerUrls, trackerURL)
	}

	return &Data{InfoHash: parsedInfoHash, Name: query.Get("dn"), Trackers: trackerUrls}, nil
}
