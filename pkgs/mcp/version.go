package mcp

import "slices"

// Supported protocol versions.
const (
	ProtocolVersion20250618 = "2025-06-18"
	ProtocolVersion20250326 = "2025-03-26"
	ProtocolVersion20241105 = "2024-11-05"

	LatestProtocolVersion = ProtocolVersion20250618
)

// SupportedProtocolVersions lists the versions
// the server can speak, latest first.
var SupportedProtocolVersions = []string{
	ProtocolVersion20250618,
	ProtocolVersion20250326,
	ProtocolVersion20241105,
}

// NegotiateProtocolVersion returns the requested version
// if it is supported, or the latest supported one.
func NegotiateProtocolVersion(requested string) string {

	if slices.Contains(SupportedProtocolVersions, requested) {
		return requested
	}

	return LatestProtocolVersion
}
