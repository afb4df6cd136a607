package compare

import "encoding/binary"

// Format identifies the container format of a produced output stream.
// The format selects which byte ranges are excluded from equality checks.
type Format string

const (
	// FormatGzip is the RFC 1952 gzip container.
	FormatGzip Format = "gzip"

	// FormatRaw applies no masking; every byte must match.
	FormatRaw Format = "raw"
)

// Mask declares a half-open byte range [Offset, Offset+Length) excluded
// from byte-exact comparison.
type Mask struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// gzip member layout (RFC 1952):
//
//	offset 0-1  magic 1f 8b
//	offset 2    compression method (8 = deflate)
//	offset 3    flags
//	offset 4-7  MTIME, Unix seconds, little-endian
//	offset 8    XFL
//	offset 9    OS identifier (3 = Unix, 7 = Macintosh, 11 = NTFS)
//	...         deflate payload
//	last 8      CRC32 + ISIZE, little-endian
const (
	gzipHeaderLen  = 10
	gzipTrailerLen = 8
)

// formatMasks maps each known format to its masked header ranges.
// MTIME varies with the instant the input file was materialized and OS
// varies with the producing platform; everything else, payload and
// trailer included, must match exactly. New formats are added here
// without touching the comparator control flow.
var formatMasks = map[Format][]Mask{
	FormatGzip: {
		{Offset: 4, Length: 4}, // MTIME
		{Offset: 9, Length: 1}, // OS
	},
	FormatRaw: nil,
}

// MasksFor returns the masked ranges for a format.
// Unknown formats get no masking.
func MasksFor(f Format) []Mask {
	return formatMasks[f]
}

// ValidFormat reports whether f names a known format.
func ValidFormat(f Format) bool {
	_, ok := formatMasks[f]
	return ok
}

// maskedAt reports whether the byte at off falls inside any mask.
func maskedAt(masks []Mask, off int64) bool {
	for _, m := range masks {
		if off >= m.Offset && off < m.Offset+m.Length {
			return true
		}
	}
	return false
}

// Trailer holds the decoded fields of a gzip member trailer.
type Trailer struct {
	CRC32 uint32 // checksum of the uncompressed data
	ISize uint32 // uncompressed size mod 2^32
}

// GzipTrailer extracts the trailing CRC32/ISIZE pair from a gzip member.
// Returns false if b is too short to hold a header and trailer.
func GzipTrailer(b []byte) (Trailer, bool) {
	if len(b) < gzipHeaderLen+gzipTrailerLen {
		return Trailer{}, false
	}
	t := b[len(b)-gzipTrailerLen:]
	return Trailer{
		CRC32: binary.LittleEndian.Uint32(t[0:4]),
		ISize: binary.LittleEndian.Uint32(t[4:8]),
	}, true
}
