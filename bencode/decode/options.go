package decode

// DefaultMaxDepth bounds container nesting unless WithMaxDepth says otherwise.
const DefaultMaxDepth = 512

type DuplicateKeys int

const (
	LastWins DuplicateKeys = iota
	FirstWins
	RejectDuplicates
)

func (p DuplicateKeys) String() string {
	switch p {
	case LastWins:
		return "last"
	case FirstWins:
		return "first"
	case RejectDuplicates:
		return "reject"
	default:
		return "unknown"
	}
}

type options struct {
	encoding      string
	maxDepth      int
	duplicateKeys DuplicateKeys
}

type Option func(*options)

// WithEncoding turns on text mode: byte strings come back as value.Text
// decoded under the named encoding. Dictionary keys are checked against the
// encoding but kept as raw bytes.
func WithEncoding(name string) Option {
	return func(o *options) {
		o.encoding = name
	}
}

// WithMaxDepth limits container nesting. Zero or less disables the limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func WithDuplicateKeys(policy DuplicateKeys) Option {
	return func(o *options) {
		o.duplicateKeys = policy
	}
}
