package sanitize

import "bytes"

var bom = []byte{0xEF, 0xBB, 0xBF}

// Line sanitizes a line received on a stream.
// It removes all trailing '\n' and '\r' and a
// leading UTF-8 byte order mark.
func Line(data []byte) []byte {

	return bytes.TrimPrefix(bytes.TrimRight(data, "\n\r"), bom)
}
