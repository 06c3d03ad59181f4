package encode

// DefaultMaxDepth bounds container nesting, which also stops pointer cycles.
const DefaultMaxDepth = 512

type options struct {
	encoding string
	maxDepth int
}

type Option func(*options)

// WithEncoding selects how Go strings are turned into byte strings. UTF-8 by default.
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
