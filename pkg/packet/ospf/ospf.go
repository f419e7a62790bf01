// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

// Package ospf implements a binary codec for OSPFv2 protocol packets
// (RFC2328 A.3): decoding a raw octet buffer into a typed packet tree and
// encoding that tree back into wire-exact bytes, including length and
// checksum computation. The package performs no I/O and keeps no state
// between calls; callers must hand ParsePacket a buffer trimmed to exactly
// one packet.
package ospf

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"go.uber.org/zap/zapcore"
)

// Version is the only protocol version this codec understands.
const Version uint8 = 2

// HeaderLength is the size of the fixed OSPFv2 packet header, including
// the 8-byte authentication field.
const HeaderLength uint16 = 24

// Offsets into the fixed header.
const (
	lengthOffset   = 2
	checksumOffset = 12
	authOffset     = 16
	authLength     = 8
)

type PacketType uint8

const ( // OSPF packet types (RFC2328 A.3.1)
	TypeHello               PacketType = 1
	TypeDatabaseDescription PacketType = 2
	TypeLSRequest           PacketType = 3
	TypeLSUpdate            PacketType = 4
	TypeLSAcknowledgment    PacketType = 5
)

func (t PacketType) String() string {
	switch t {
	case TypeHello:
		return "Hello"
	case TypeDatabaseDescription:
		return "Database Description"
	case TypeLSRequest:
		return "Link State Request"
	case TypeLSUpdate:
		return "Link State Update"
	case TypeLSAcknowledgment:
		return "Link State Acknowledgment"
	default:
		return fmt.Sprintf("Unknown (%d)", uint8(t))
	}
}

// AuthTypeNull is the only AuType value the codec supports. The 8-byte
// authentication field is carried as an opaque value with no semantic
// interpretation.
const AuthTypeNull uint16 = 0

// Packet is a fully decoded OSPFv2 packet. Length and Checksum are wire
// fields: ParsePacket fills them from the buffer and Serialize overwrites
// them with the recomputed values, so a packet always round-trips equal.
type Packet struct {
	Version  uint8
	Type     PacketType
	Length   uint16
	RouterID netip.Addr
	AreaID   netip.Addr
	Checksum uint16
	AuthType uint16
	AuthData uint64
	Payload  Payload
}

// NewPacket builds a packet around the given payload with null
// authentication. Length and Checksum are computed at Serialize time.
func NewPacket(routerID, areaID netip.Addr, payload Payload) *Packet {
	return &Packet{
		Version:  Version,
		Type:     payload.PacketType(),
		RouterID: routerID,
		AreaID:   areaID,
		AuthType: AuthTypeNull,
		Payload:  payload,
	}
}

// ParsePacket decodes one OSPFv2 packet from buf. The buffer must contain
// exactly one packet: its declared length field must equal len(buf).
// The checksum is verified before any structural parsing.
func ParsePacket(buf []byte) (*Packet, error) {
	if len(buf) < int(HeaderLength) {
		return nil, fmt.Errorf("%w: need %d header bytes, got %d", ErrTruncated, HeaderLength, len(buf))
	}
	if sum := InternetChecksum(buf[:authOffset], buf[authOffset+authLength:]); sum != 0 {
		return nil, fmt.Errorf("%w: residual 0x%04x", ErrChecksumMismatch, sum)
	}

	p := &Packet{
		Version:  buf[0],
		Type:     PacketType(buf[1]),
		Length:   binary.BigEndian.Uint16(buf[lengthOffset : lengthOffset+2]),
		RouterID: addrFromSlice(buf[4:8]),
		AreaID:   addrFromSlice(buf[8:12]),
		Checksum: binary.BigEndian.Uint16(buf[checksumOffset : checksumOffset+2]),
		AuthType: binary.BigEndian.Uint16(buf[14:16]),
	}
	if int(p.Length) != len(buf) {
		return nil, fmt.Errorf("%w: declared packet length %d, buffer holds %d bytes", ErrMalformedCount, p.Length, len(buf))
	}
	if p.AuthType != AuthTypeNull {
		return nil, fmt.Errorf("%w: AuType %d", ErrUnsupportedAuthType, p.AuthType)
	}
	p.AuthData = binary.BigEndian.Uint64(buf[authOffset : authOffset+authLength])

	p.Payload = newPayload(p.Type)
	if err := p.Payload.DecodeFromBytes(buf[HeaderLength:]); err != nil {
		return nil, err
	}
	return p, nil
}

// Serialize encodes the packet into wire bytes. The length and checksum
// fields are computed from the serialized form and written back into the
// packet as well as the buffer. Serializing a non-null AuthType fails
// rather than emitting bytes the codec could not parse back.
func (p *Packet) Serialize() ([]byte, error) {
	if p.AuthType != AuthTypeNull {
		return nil, fmt.Errorf("%w: AuType %d", ErrUnsupportedAuthType, p.AuthType)
	}
	body := p.Payload.Serialize()
	p.Type = p.Payload.PacketType()
	p.Length = HeaderLength + uint16(len(body))

	buf := make([]byte, HeaderLength, int(HeaderLength)+len(body))
	buf[0] = p.Version
	buf[1] = uint8(p.Payload.PacketType())
	binary.BigEndian.PutUint16(buf[lengthOffset:lengthOffset+2], p.Length)
	copy(buf[4:8], addrToSlice(p.RouterID))
	copy(buf[8:12], addrToSlice(p.AreaID))
	// Checksum field stays zero until the whole packet is serialized.
	binary.BigEndian.PutUint16(buf[14:16], p.AuthType)
	binary.BigEndian.PutUint64(buf[authOffset:authOffset+authLength], p.AuthData)
	buf = append(buf, body...)

	p.Checksum = InternetChecksum(buf[:authOffset], buf[authOffset+authLength:])
	binary.BigEndian.PutUint16(buf[checksumOffset:checksumOffset+2], p.Checksum)
	return buf, nil
}

func (p *Packet) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("version", p.Version)
	enc.AddString("type", p.Type.String())
	enc.AddUint16("length", p.Length)
	enc.AddString("routerID", p.RouterID.String())
	enc.AddString("areaID", p.AreaID.String())
	enc.AddUint16("checksum", p.Checksum)
	enc.AddUint16("authType", p.AuthType)
	enc.AddUint64("authData", p.AuthData)
	return enc.AddObject("payload", p.Payload)
}
