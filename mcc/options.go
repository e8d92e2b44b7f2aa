package mcc

// Option configures parsing and serialization.
type Option func(*options)

type options struct {
	registry *Registry
	width    SizeWidth
	limit    int64
}

func applyOptions(opts []Option) options {
	o := options{
		registry: DefaultRegistry(),
		limit:    -1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithRegistry sets the registry used to type chunks. A nil registry keeps
// the default.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithSizeWidth forces 32-bit or 64-bit size fields instead of detecting the
// width from the first tag. Invalid widths are ignored.
func WithSizeWidth(w SizeWidth) Option {
	return func(o *options) {
		if w.Valid() {
			o.width = w
		}
	}
}

// WithLimit sets the total stream length. Sizes that cannot fit in the rest
// of the stream are reported as truncation before any payload is read.
func WithLimit(n int64) Option {
	return func(o *options) {
		o.limit = n
	}
}
