package ui

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/mertwole/bencode-cli/bencode/value"
)

const maxPreviewLength = 48

type nodeItem struct {
	label string
	node  value.Value
}

func (i nodeItem) FilterValue() string { return i.label }

func (i nodeItem) isContainer() bool {
	switch i.node.(type) {
	case value.List, value.Dictionary:
		return true
	default:
		return false
	}
}

func childItems(container value.Value) []nodeItem {
	items := make([]nodeItem, 0)

	switch container := container.(type) {
	case value.List:
		for i, element := range container {
			items = append(items, nodeItem{label: fmt.Sprintf("[%d]", i), node: element})
		}
	case value.Dictionary:
		for key, element := range container.All() {
			items = append(items, nodeItem{label: previewText([]byte(key)), node: element})
		}
	default:
		items = append(items, nodeItem{label: "value", node: container})
	}

	return items
}

func kindLabel(node value.Value) string {
	switch node.(type) {
	case value.Text:
		return "text"
	case nil:
		return "empty"
	default:
		return node.Kind().String()
	}
}

func summarize(node value.Value) string {
	switch node := node.(type) {
	case value.Integer:
		return node.String()
	case value.ByteString:
		return fmt.Sprintf("%d bytes  %s", len(node), previewText(node))
	case value.Text:
		return fmt.Sprintf("%d chars  %s", utf8.RuneCountInString(string(node)), previewText([]byte(node)))
	case value.List:
		return fmt.Sprintf("%d elements", len(node))
	case value.Dictionary:
		return fmt.Sprintf("%d keys", node.Len())
	default:
		return ""
	}
}

// previewText quotes printable text and falls back to hex for binary data.
func previewText(data []byte) string {
	if utf8.Valid(data) && isPrintable(string(data)) {
		text := string(data)
		if utf8.RuneCountInString(text) > maxPreviewLength {
			text = string([]rune(text)[:maxPreviewLength]) + "…"
		}
		return strconv.Quote(text)
	}

	if len(data) > maxPreviewLength/2 {
		return "0x" + hex.EncodeToString(data[:maxPreviewLength/2]) + "…"
	}

	return "0x" + hex.EncodeToString(data)
}

func isPrintable(text string) bool {
	for _, r := range text {
		if !unicode.IsPrint(r) && r != ' ' {
			return false
		}
	}

	return true
}
