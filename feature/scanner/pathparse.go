package scanner

import (
	"regexp"
	"strings"
)

// versionSuffix matches a trailing "-v<digits>" directory suffix (-v1, -v23).
var versionSuffix = regexp.MustCompile(`-v\d+$`)

// Attributes are the structured fields recovered from a protocol directory
// name.
type Attributes struct {
	Chain   string
	Client  string
	Network string
	Type    string
}

// ParseProtocolDir parses a protocol directory name into its structured
// attributes. It is total: malformed input yields a best-effort result with
// defaults, never an error.
//
// The name encodes chain-client-network-type, optionally followed by a
// version suffix, e.g. "arbitrum-one-nitro-mainnet-full-v1". Only the chain
// segment may itself contain dashes, so parsing works backward from the end:
// the last token is the type, then network, then client, and whatever
// remains (joined on "-") is the chain. A forward split could never
// disambiguate a name like "arbitrum-one-nitro-mainnet-full".
func ParseProtocolDir(dir string) Attributes {
	clean := strings.TrimSuffix(dir, "/")
	clean = versionSuffix.ReplaceAllString(clean, "")

	parts := strings.Split(clean, "-")

	if len(parts) >= 4 {
		return Attributes{
			Chain:   strings.Join(parts[:len(parts)-3], "-"),
			Client:  parts[len(parts)-3],
			Network: parts[len(parts)-2],
			Type:    parts[len(parts)-1],
		}
	}

	// Incomplete pattern: fall back positionally with defaults.
	attrs := Attributes{
		Chain:   "unknown",
		Client:  "unknown",
		Network: "mainnet",
		Type:    "archive",
	}
	if len(parts) > 0 && parts[0] != "" {
		attrs.Chain = parts[0]
	}
	if len(parts) > 1 {
		attrs.Client = parts[1]
	}
	if len(parts) > 2 {
		attrs.Network = parts[2]
	}
	if len(parts) > 3 {
		attrs.Type = parts[3]
	}
	return attrs
}
