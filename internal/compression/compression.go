// Package compression wraps the codecs used to shrink draft payloads at rest.
package compression

// Compressor encodes and decodes opaque byte payloads.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// None passes payloads through unchanged.
type None struct{}

func (None) Compress(data []byte) ([]byte, error) { return data, nil }

func (None) Decompress(data []byte) ([]byte, error) { return data, nil }
