// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package ospf

import "errors"

// Decode failure kinds. Every error returned by ParsePacket wraps exactly
// one of these, so callers can classify failures with errors.Is.
var (
	// ErrTruncated reports fewer bytes than a fixed-size field requires.
	ErrTruncated = errors.New("truncated input")

	// ErrChecksumMismatch reports a packet whose recomputed checksum
	// disagrees with the checksum field in its header.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnsupportedAuthType reports an AuType other than null
	// authentication. Cryptographic authentication is out of scope.
	ErrUnsupportedAuthType = errors.New("unsupported authentication type")

	// ErrMalformedCount reports a count or length field that disagrees
	// with the bytes actually present: an explicit count implying more
	// elements than remain, a length-bounded region ending mid-element,
	// or trailing bytes after the last element.
	ErrMalformedCount = errors.New("malformed count")
)
