package value

import (
	"cmp"
	"iter"
	"slices"
)

// Entry is one key/value pair. Key holds the raw key bytes, or the decoded
// text when the dictionary came out of a text-mode decode.
type Entry struct {
	Key   string
	Value Value
}

// Dictionary keeps its entries sorted by key bytes.
type Dictionary struct {
	entries []Entry
}

// NewDictionary sorts entries by key. For duplicate keys the last one wins.
func NewDictionary(entries ...Entry) Dictionary {
	sorted := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		if position, ok := index[entry.Key]; ok {
			sorted[position].Value = entry.Value
			continue
		}

		index[entry.Key] = len(sorted)
		sorted = append(sorted, entry)
	}

	slices.SortFunc(sorted, func(a, b Entry) int { return cmp.Compare(a.Key, b.Key) })

	return Dictionary{entries: sorted}
}

func (d Dictionary) Kind() Kind { return DictionaryKind }

func (d Dictionary) Len() int {
	return len(d.entries)
}

func (d Dictionary) Get(key string) (Value, bool) {
	position, found := slices.BinarySearchFunc(d.entries, key, func(entry Entry, key string) int {
		return cmp.Compare(entry.Key, key)
	})
	if !found {
		return nil, false
	}

	return d.entries[position].Value, true
}

func (d Dictionary) Keys() []string {
	keys := make([]string, 0, len(d.entries))
	for _, entry := range d.entries {
		keys = append(keys, entry.Key)
	}

	return keys
}

// Entries returns a copy in ascending key order.
func (d Dictionary) Entries() []Entry {
	return slices.Clone(d.entries)
}

func (d Dictionary) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, entry := range d.entries {
			if !yield(entry.Key, entry.Value) {
				return
			}
		}
	}
}
