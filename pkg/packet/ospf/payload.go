// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package ospf

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"go.uber.org/zap/zapcore"
)

// Payload is the body of an OSPFv2 packet, selected by the packet type in
// the header. DecodeFromBytes receives exactly the payload region of the
// packet (the bytes after the fixed header, bounded by the declared packet
// length) and must consume all of it.
type Payload interface {
	zapcore.ObjectMarshaler
	DecodeFromBytes(data []byte) error
	Serialize() []byte
	PacketType() PacketType
}

// newPayload returns the empty payload for a packet type. Undefined types
// map to UnknownPayload carrying the raw tag, never to a decode failure.
func newPayload(t PacketType) Payload {
	switch t {
	case TypeHello:
		return &HelloPayload{}
	case TypeDatabaseDescription:
		return &DBDescriptionPayload{}
	case TypeLSRequest:
		return &LSRequestPayload{}
	case TypeLSUpdate:
		return &LSUpdatePayload{}
	case TypeLSAcknowledgment:
		return &LSAcknowledgePayload{}
	default:
		return &UnknownPayload{Type: t}
	}
}

// decodeAddrList parses 4-byte addresses until data is exhausted.
// A trailing partial address is a decode failure.
func decodeAddrList(data []byte) ([]netip.Addr, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: address list region of %d bytes is not a multiple of 4", ErrMalformedCount, len(data))
	}
	var addrs []netip.Addr
	for i := 0; i < len(data); i += 4 {
		addrs = append(addrs, addrFromSlice(data[i:i+4]))
	}
	return addrs, nil
}

func serializeAddrList(addrs []netip.Addr) []byte {
	buf := make([]byte, 0, len(addrs)*4)
	for _, a := range addrs {
		buf = append(buf, addrToSlice(a)...)
	}
	return buf
}

// decodeLSAHeaderList parses 20-byte LSA headers until data is exhausted.
func decodeLSAHeaderList(data []byte) ([]LSAHeader, error) {
	if len(data)%int(LSAHeaderLength) != 0 {
		return nil, fmt.Errorf("%w: LSA header list region of %d bytes is not a multiple of %d", ErrMalformedCount, len(data), LSAHeaderLength)
	}
	var headers []LSAHeader
	for len(data) > 0 {
		var h LSAHeader
		if err := h.DecodeFromBytes(data); err != nil {
			return nil, err
		}
		headers = append(headers, h)
		data = data[LSAHeaderLength:]
	}
	return headers, nil
}

func serializeLSAHeaderList(headers []LSAHeader) []byte {
	buf := make([]byte, 0, len(headers)*int(LSAHeaderLength))
	for i := range headers {
		buf = append(buf, headers[i].Serialize()...)
	}
	return buf
}

type addrArray []netip.Addr

func (a addrArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, addr := range a {
		enc.AppendString(addr.String())
	}
	return nil
}

type lsaHeaderArray []LSAHeader

func (a lsaHeaderArray) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for i := range a {
		if err := enc.AppendObject(&a[i]); err != nil {
			return err
		}
	}
	return nil
}

// Hello packet body (RFC2328 A.3.2). The neighbor list has no count field;
// it runs to the end of the payload region.
type HelloPayload struct {
	NetworkMask            netip.Addr
	HelloInterval          uint16
	Options                Options
	RouterPriority         uint8
	RouterDeadInterval     uint32
	DesignatedRouter       netip.Addr
	BackupDesignatedRouter netip.Addr
	Neighbors              []netip.Addr
}

const helloFixedLength = 20

func (p *HelloPayload) DecodeFromBytes(data []byte) error {
	if len(data) < helloFixedLength {
		return fmt.Errorf("%w: need %d Hello bytes, got %d", ErrTruncated, helloFixedLength, len(data))
	}
	p.NetworkMask = addrFromSlice(data[0:4])
	p.HelloInterval = binary.BigEndian.Uint16(data[4:6])
	p.Options = Options(data[6])
	p.RouterPriority = data[7]
	p.RouterDeadInterval = binary.BigEndian.Uint32(data[8:12])
	p.DesignatedRouter = addrFromSlice(data[12:16])
	p.BackupDesignatedRouter = addrFromSlice(data[16:20])

	var err error
	if p.Neighbors, err = decodeAddrList(data[helloFixedLength:]); err != nil {
		return err
	}
	return nil
}

func (p *HelloPayload) Serialize() []byte {
	buf := make([]byte, helloFixedLength)
	copy(buf[0:4], addrToSlice(p.NetworkMask))
	binary.BigEndian.PutUint16(buf[4:6], p.HelloInterval)
	buf[6] = uint8(p.Options)
	buf[7] = p.RouterPriority
	binary.BigEndian.PutUint32(buf[8:12], p.RouterDeadInterval)
	copy(buf[12:16], addrToSlice(p.DesignatedRouter))
	copy(buf[16:20], addrToSlice(p.BackupDesignatedRouter))
	return append(buf, serializeAddrList(p.Neighbors)...)
}

func (p *HelloPayload) PacketType() PacketType {
	return TypeHello
}

func (p *HelloPayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("networkMask", p.NetworkMask.String())
	enc.AddUint16("helloInterval", p.HelloInterval)
	if err := enc.AddObject("options", p.Options); err != nil {
		return err
	}
	enc.AddUint8("routerPriority", p.RouterPriority)
	enc.AddUint32("routerDeadInterval", p.RouterDeadInterval)
	enc.AddString("designatedRouter", p.DesignatedRouter.String())
	enc.AddString("backupDesignatedRouter", p.BackupDesignatedRouter.String())
	return enc.AddArray("neighbors", addrArray(p.Neighbors))
}

// Database Description packet body (RFC2328 A.3.3). The LSA header list
// runs to the end of the payload region.
type DBDescriptionPayload struct {
	InterfaceMTU   uint16
	Options        Options
	Flags          DDFlags
	SequenceNumber uint32
	LSAHeaders     []LSAHeader
}

const dbDescriptionFixedLength = 8

func (p *DBDescriptionPayload) DecodeFromBytes(data []byte) error {
	if len(data) < dbDescriptionFixedLength {
		return fmt.Errorf("%w: need %d Database Description bytes, got %d", ErrTruncated, dbDescriptionFixedLength, len(data))
	}
	p.InterfaceMTU = binary.BigEndian.Uint16(data[0:2])
	p.Options = Options(data[2])
	p.Flags = DDFlags(data[3])
	p.SequenceNumber = binary.BigEndian.Uint32(data[4:8])

	var err error
	if p.LSAHeaders, err = decodeLSAHeaderList(data[dbDescriptionFixedLength:]); err != nil {
		return err
	}
	return nil
}

func (p *DBDescriptionPayload) Serialize() []byte {
	buf := make([]byte, dbDescriptionFixedLength)
	binary.BigEndian.PutUint16(buf[0:2], p.InterfaceMTU)
	buf[2] = uint8(p.Options)
	buf[3] = uint8(p.Flags)
	binary.BigEndian.PutUint32(buf[4:8], p.SequenceNumber)
	return append(buf, serializeLSAHeaderList(p.LSAHeaders)...)
}

func (p *DBDescriptionPayload) PacketType() PacketType {
	return TypeDatabaseDescription
}

func (p *DBDescriptionPayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint16("interfaceMTU", p.InterfaceMTU)
	if err := enc.AddObject("options", p.Options); err != nil {
		return err
	}
	if err := enc.AddObject("flags", p.Flags); err != nil {
		return err
	}
	enc.AddUint32("sequenceNumber", p.SequenceNumber)
	return enc.AddArray("lsaHeaders", lsaHeaderArray(p.LSAHeaders))
}

// LSRequestEntry identifies one LSA being requested (RFC2328 A.3.4).
// The LS type occupies a full 32-bit word on the wire; the raw value is
// preserved so unusual upper bytes survive a round trip.
type LSRequestEntry struct {
	LSType    uint32
	LSID      uint32
	AdvRouter netip.Addr
}

const lsRequestEntryLength = 12

func (e *LSRequestEntry) DecodeFromBytes(data []byte) error {
	if len(data) < lsRequestEntryLength {
		return fmt.Errorf("%w: need %d Link State Request entry bytes, got %d", ErrTruncated, lsRequestEntryLength, len(data))
	}
	e.LSType = binary.BigEndian.Uint32(data[0:4])
	e.LSID = binary.BigEndian.Uint32(data[4:8])
	e.AdvRouter = addrFromSlice(data[8:12])
	return nil
}

func (e *LSRequestEntry) Serialize() []byte {
	return AppendByteSlices(
		Uint32ToByteSlice(e.LSType),
		Uint32ToByteSlice(e.LSID),
		addrToSlice(e.AdvRouter),
	)
}

func (e *LSRequestEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("lsType", LSType(e.LSType).String())
	enc.AddUint32("lsID", e.LSID)
	enc.AddString("advRouter", e.AdvRouter.String())
	return nil
}

// Link State Request packet body: request entries to the end of the
// payload region.
type LSRequestPayload struct {
	Entries []LSRequestEntry
}

func (p *LSRequestPayload) DecodeFromBytes(data []byte) error {
	if len(data)%lsRequestEntryLength != 0 {
		return fmt.Errorf("%w: request list region of %d bytes is not a multiple of %d", ErrMalformedCount, len(data), lsRequestEntryLength)
	}
	p.Entries = nil
	for len(data) > 0 {
		var e LSRequestEntry
		if err := e.DecodeFromBytes(data); err != nil {
			return err
		}
		p.Entries = append(p.Entries, e)
		data = data[lsRequestEntryLength:]
	}
	return nil
}

func (p *LSRequestPayload) Serialize() []byte {
	buf := make([]byte, 0, len(p.Entries)*lsRequestEntryLength)
	for i := range p.Entries {
		buf = append(buf, p.Entries[i].Serialize()...)
	}
	return buf
}

func (p *LSRequestPayload) PacketType() PacketType {
	return TypeLSRequest
}

func (p *LSRequestPayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	return enc.AddArray("requests", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for i := range p.Entries {
			if err := ae.AppendObject(&p.Entries[i]); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Link State Update packet body (RFC2328 A.3.5): an explicit 32-bit
// advertisement count followed by exactly that many full LSAs. The count
// is derived from the LSA slice at encode time.
type LSUpdatePayload struct {
	LSAs []LSA
}

func (p *LSUpdatePayload) DecodeFromBytes(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: need 4 advertisement count bytes, got %d", ErrTruncated, len(data))
	}
	num := binary.BigEndian.Uint32(data[0:4])
	data = data[4:]

	p.LSAs = nil
	for i := uint32(0); i < num; i++ {
		if len(data) < int(LSAHeaderLength) {
			return fmt.Errorf("%w: advertisement count %d, but LSA %d is missing", ErrMalformedCount, num, i+1)
		}
		var h LSAHeader
		if err := h.DecodeFromBytes(data); err != nil {
			return err
		}
		if int(h.Length) < int(LSAHeaderLength) || int(h.Length) > len(data) {
			return fmt.Errorf("%w: LSA declares %d bytes, %d remain", ErrMalformedCount, h.Length, len(data))
		}
		var lsa LSA
		if err := lsa.DecodeFromBytes(data[:h.Length]); err != nil {
			return err
		}
		p.LSAs = append(p.LSAs, lsa)
		data = data[h.Length:]
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes after %d advertisements", ErrMalformedCount, len(data), num)
	}
	return nil
}

func (p *LSUpdatePayload) Serialize() []byte {
	buf := Uint32ToByteSlice(uint32(len(p.LSAs)))
	for i := range p.LSAs {
		buf = append(buf, p.LSAs[i].Serialize()...)
	}
	return buf
}

func (p *LSUpdatePayload) PacketType() PacketType {
	return TypeLSUpdate
}

func (p *LSUpdatePayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	return enc.AddArray("lsas", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for i := range p.LSAs {
			if err := ae.AppendObject(&p.LSAs[i]); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Link State Acknowledgment packet body (RFC2328 A.3.6): LSA headers to
// the end of the payload region.
type LSAcknowledgePayload struct {
	LSAHeaders []LSAHeader
}

func (p *LSAcknowledgePayload) DecodeFromBytes(data []byte) error {
	var err error
	if p.LSAHeaders, err = decodeLSAHeaderList(data); err != nil {
		return err
	}
	return nil
}

func (p *LSAcknowledgePayload) Serialize() []byte {
	return serializeLSAHeaderList(p.LSAHeaders)
}

func (p *LSAcknowledgePayload) PacketType() PacketType {
	return TypeLSAcknowledgment
}

func (p *LSAcknowledgePayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	return enc.AddArray("lsaHeaders", lsaHeaderArray(p.LSAHeaders))
}

// UnknownPayload carries a packet type the codec has no dedicated decoder
// for. The raw tag and body are preserved so the packet re-encodes to the
// original bytes.
type UnknownPayload struct {
	Type PacketType
	Data []byte
}

func (p *UnknownPayload) DecodeFromBytes(data []byte) error {
	p.Data = make([]byte, len(data))
	copy(p.Data, data)
	return nil
}

func (p *UnknownPayload) Serialize() []byte {
	buf := make([]byte, len(p.Data))
	copy(buf, p.Data)
	return buf
}

func (p *UnknownPayload) PacketType() PacketType {
	return p.Type
}

func (p *UnknownPayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("type", uint8(p.Type))
	enc.AddBinary("data", p.Data)
	return nil
}
