package mcc

import (
	"maps"
	"slices"
	"sort"
)

// DataType names how a chunk's payload is interpreted.
type DataType string

const (
	TypeRaw    DataType = "raw"
	TypeFloat  DataType = "float"
	TypeUint   DataType = "uint"
	TypeString DataType = "string"
	TypeDouble DataType = "double"
)

// groupAlignments maps each of the 12 group tags to its alignment. The tag
// suffix replaces the last character of the base: FORM, FOR4, FOR8.
var groupAlignments = func() map[Tag]int {
	m := make(map[Tag]int, 12)
	for _, base := range []string{"FORM", "CAT ", "LIST", "PROP"} {
		m[MustTag(base)] = 2
		m[MustTag(base[:3]+"4")] = 4
		m[MustTag(base[:3]+"8")] = 8
	}
	return m
}()

// IsGroupTag reports whether t opens a group.
func IsGroupTag(t Tag) bool {
	_, ok := groupAlignments[t]
	return ok
}

// Alignment returns the padding boundary of a group kind tag. Unknown tags
// align to 2.
func Alignment(t Tag) int {
	if a, ok := groupAlignments[t]; ok {
		return a
	}
	return 2
}

// GroupTags returns the group tags in sorted order.
func GroupTags() []Tag {
	tags := slices.Collect(maps.Keys(groupAlignments))
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}

var defaultTagTypes = map[string]DataType{
	// Maya headers.
	"VERS": TypeString, // app version
	"UVER": TypeString,
	"MADE": TypeString,
	"CHNG": TypeString, // timestamp
	"ICON": TypeString,
	"INFO": TypeString,
	"OBJN": TypeString,
	"INCL": TypeString,
	"LUNI": TypeString, // linear unit
	"TUNI": TypeString, // time unit
	"AUNI": TypeString, // angle unit
	"FINF": TypeString, // file info

	// Generic.
	"SIZE": TypeUint,

	// DAG.
	"CREA": TypeString, // create node
	"STR ": TypeString, // string attribute

	// Cache headers.
	"VRSN": TypeString,
	"STIM": TypeUint,
	"ETIM": TypeUint,

	// Cache channels.
	"CHNM": TypeString,

	// Cache data.
	"FBCA": TypeFloat,
	"FVCA": TypeFloat,
	"DBLA": TypeDouble,
	"DVCA": TypeDouble,
}

// Registry maps chunk tags to data types and data types to encoders.
// A Registry is never modified after construction and is safe to share.
type Registry struct {
	types    map[Tag]DataType
	encoders map[DataType]Encoder
}

// RegistryOption configures a Registry under construction.
type RegistryOption func(*Registry)

// WithTagType maps tag to the given data type.
func WithTagType(tag Tag, dt DataType) RegistryOption {
	return func(r *Registry) {
		r.types[tag] = dt
	}
}

// WithoutTag removes any mapping for tag, so it decodes as raw bytes.
func WithoutTag(tag Tag) RegistryOption {
	return func(r *Registry) {
		delete(r.types, tag)
	}
}

// WithoutTypes removes every tag mapping.
func WithoutTypes() RegistryOption {
	return func(r *Registry) {
		clear(r.types)
	}
}

// WithEncoder registers enc for data type dt, replacing any built-in encoder.
func WithEncoder(dt DataType, enc Encoder) RegistryOption {
	return func(r *Registry) {
		r.encoders[dt] = enc
	}
}

// NewRegistry returns a registry with the built-in encoders and no tag
// mappings, then applies opts.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		types: make(map[Tag]DataType),
		encoders: map[DataType]Encoder{
			TypeRaw:    RawEncoder{},
			TypeString: StringEncoder{},
			TypeFloat:  Float32Encoder,
			TypeUint:   Uint32Encoder,
			TypeDouble: Float64Encoder,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	for name, dt := range defaultTagTypes {
		r.types[MustTag(name)] = dt
	}
	return r
}()

// DefaultRegistry returns the registry of tags known to Maya caches and
// scene files.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// With returns a copy of r with opts applied.
func (r *Registry) With(opts ...RegistryOption) *Registry {
	c := &Registry{
		types:    maps.Clone(r.types),
		encoders: maps.Clone(r.encoders),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsGroup reports whether tag opens a group.
func (r *Registry) IsGroup(tag Tag) bool {
	return IsGroupTag(tag)
}

// Alignment returns the alignment of a group kind tag.
func (r *Registry) Alignment(tag Tag) int {
	return Alignment(tag)
}

// TypeOf returns the data type mapped to tag, or TypeRaw.
func (r *Registry) TypeOf(tag Tag) DataType {
	if dt, ok := r.types[tag]; ok {
		return dt
	}
	return TypeRaw
}

// HasType reports whether an encoder is registered for dt.
func (r *Registry) HasType(dt DataType) bool {
	_, ok := r.encoders[dt]
	return ok
}

// EncoderFor returns the encoder for a data type, falling back to raw.
func (r *Registry) EncoderFor(dt DataType) Encoder {
	if enc, ok := r.encoders[dt]; ok {
		return enc
	}
	return RawEncoder{}
}

// Encoder returns the encoder used for chunks tagged tag.
func (r *Registry) Encoder(tag Tag) Encoder {
	return r.EncoderFor(r.TypeOf(tag))
}

// Mapped reports whether tag has an explicit data type.
func (r *Registry) Mapped(tag Tag) bool {
	_, ok := r.types[tag]
	return ok
}

// Tags returns every mapped tag in sorted order.
func (r *Registry) Tags() []Tag {
	tags := slices.Collect(maps.Keys(r.types))
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}
