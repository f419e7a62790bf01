// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package ospf

import (
	"encoding/binary"
	"net/netip"
)

// AppendByteSlices concatenates multiple byte slices into a single slice.
func AppendByteSlices(slices ...[]byte) []byte {
	totalLen := 0
	for _, s := range slices {
		totalLen += len(s)
	}

	result := make([]byte, totalLen)
	offset := 0
	for _, s := range slices {
		copy(result[offset:], s)
		offset += len(s)
	}

	return result
}

// Uint16ToByteSlice converts a uint16-based value to a big-endian byte slice.
func Uint16ToByteSlice[T ~uint16](v T) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}

// Uint32ToByteSlice converts a uint32 value to a big-endian byte slice.
func Uint32ToByteSlice(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// Uint24ToByteSlice converts the low 24 bits of v to a 3-byte big-endian slice.
// Metric fields in Summary and AS-External LSAs are 24 bits on the wire.
func Uint24ToByteSlice(v uint32) []byte {
	return []byte{uint8(v >> 16), uint8(v >> 8), uint8(v)}
}

// Uint24FromByteSlice reads a 3-byte big-endian value. The slice must hold
// at least 3 bytes.
func Uint24FromByteSlice(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Bitwise is a type constraint for unsigned integer types (uint8, uint16, uint32).
type Bitwise interface {
	~uint8 | ~uint16 | ~uint32
}

// IsBitSet checks if a specific bit is set in the value, with bit 0 as the least significant bit (LSB).
func IsBitSet[T Bitwise](value, mask T) bool {
	return value&mask != 0
}

// SetBit sets a specific bit in the value of any unsigned integer type.
func SetBit[T Bitwise](value, bit T, condition bool) T {
	if condition {
		return value | bit
	}
	return value
}

// InternetChecksum computes the 16-bit one's-complement Internet checksum
// (RFC1071) over the given regions, treated as one contiguous byte stream.
// An odd trailing byte is padded with a zero low byte.
func InternetChecksum(regions ...[]byte) uint16 {
	var sum uint32
	hi := true
	for _, region := range regions {
		for _, b := range region {
			if hi {
				sum += uint32(b) << 8
			} else {
				sum += uint32(b)
			}
			hi = !hi
		}
	}
	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

func addrFromSlice(b []byte) netip.Addr {
	return netip.AddrFrom4([4]byte(b[:4]))
}

func addrToSlice(a netip.Addr) []byte {
	if !a.IsValid() {
		return make([]byte, 4)
	}
	b := a.As4()
	return b[:]
}
