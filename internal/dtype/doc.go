// Package dtype converts between the big-endian element arrays stored in
// cache chunks and Go slices.
//
// Every numeric payload in the format is a packed sequence of fixed-size,
// big-endian elements with no header or count. A payload whose length is
// not an exact multiple of the element size cannot be decoded; the
// conversion functions report that with a [*LengthError] rather than
// silently truncating.
//
//	Kind    | size | Go type
//	--------|------|---------
//	Float32 | 4    | float32
//	Float64 | 8    | float64
//	Uint32  | 4    | uint32
//
// # Key Functions
//
//   - [Float32s], [Float64s], [Uint32s]: decode a payload
//   - [PutFloat32s], [PutFloat64s], [PutUint32s]: encode a slice
//   - [Count]: validate a payload length and return its element count
package dtype
