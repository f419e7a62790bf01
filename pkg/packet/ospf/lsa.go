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

type LSType uint8

const ( // OSPF LS types (RFC2328 A.4.1 plus RFC3101/RFC5250)
	LSTypeRouter          LSType = 1
	LSTypeNetwork         LSType = 2
	LSTypeSummary         LSType = 3
	LSTypeSummaryASBR     LSType = 4
	LSTypeASExternal      LSType = 5
	LSTypeNSSAASExternal  LSType = 7
	LSTypeOpaqueLinkLocal LSType = 9
	LSTypeOpaqueAreaLocal LSType = 10
	LSTypeOpaqueASWide    LSType = 11
)

func (t LSType) String() string {
	switch t {
	case LSTypeRouter:
		return "Router-LSA"
	case LSTypeNetwork:
		return "Network-LSA"
	case LSTypeSummary:
		return "Summary-LSA (network)"
	case LSTypeSummaryASBR:
		return "Summary-LSA (ASBR)"
	case LSTypeASExternal:
		return "AS-External-LSA"
	case LSTypeNSSAASExternal:
		return "NSSA-AS-External-LSA"
	case LSTypeOpaqueLinkLocal:
		return "Opaque-LSA (link-local)"
	case LSTypeOpaqueAreaLocal:
		return "Opaque-LSA (area-local)"
	case LSTypeOpaqueASWide:
		return "Opaque-LSA (AS-wide)"
	default:
		return fmt.Sprintf("Unknown LS type (%d)", uint8(t))
	}
}

// LSAHeaderLength is the size of the fixed 20-byte LSA header.
const LSAHeaderLength uint16 = 20

// LSAHeader is the fixed header every LSA starts with (RFC2328 A.4.1).
// It is parsed identically regardless of the LS type; only the body shape
// depends on the type tag. Length covers header plus body and bounds the
// body region during decode.
type LSAHeader struct {
	Age            uint16
	Options        Options
	Type           LSType
	LSID           uint32
	AdvRouter      netip.Addr
	SequenceNumber uint32
	Checksum       uint16
	Length         uint16
}

func (h *LSAHeader) DecodeFromBytes(data []byte) error {
	if len(data) < int(LSAHeaderLength) {
		return fmt.Errorf("%w: need %d LSA header bytes, got %d", ErrTruncated, LSAHeaderLength, len(data))
	}
	h.Age = binary.BigEndian.Uint16(data[0:2])
	h.Options = Options(data[2])
	h.Type = LSType(data[3])
	h.LSID = binary.BigEndian.Uint32(data[4:8])
	h.AdvRouter = addrFromSlice(data[8:12])
	h.SequenceNumber = binary.BigEndian.Uint32(data[12:16])
	h.Checksum = binary.BigEndian.Uint16(data[16:18])
	h.Length = binary.BigEndian.Uint16(data[18:20])
	return nil
}

func (h *LSAHeader) Serialize() []byte {
	buf := make([]byte, LSAHeaderLength)
	binary.BigEndian.PutUint16(buf[0:2], h.Age)
	buf[2] = uint8(h.Options)
	buf[3] = uint8(h.Type)
	binary.BigEndian.PutUint32(buf[4:8], h.LSID)
	copy(buf[8:12], addrToSlice(h.AdvRouter))
	binary.BigEndian.PutUint32(buf[12:16], h.SequenceNumber)
	binary.BigEndian.PutUint16(buf[16:18], h.Checksum)
	binary.BigEndian.PutUint16(buf[18:20], h.Length)
	return buf
}

func (h *LSAHeader) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint16("age", h.Age)
	if err := enc.AddObject("options", h.Options); err != nil {
		return err
	}
	enc.AddString("type", h.Type.String())
	enc.AddUint32("lsID", h.LSID)
	enc.AddString("advRouter", h.AdvRouter.String())
	enc.AddUint32("sequenceNumber", h.SequenceNumber)
	enc.AddUint16("checksum", h.Checksum)
	enc.AddUint16("length", h.Length)
	return nil
}

// LSABody is the type-dependent part of an LSA. DecodeFromBytes receives
// exactly the body region, bounded by the header's declared length, and
// must consume all of it.
type LSABody interface {
	zapcore.ObjectMarshaler
	DecodeFromBytes(data []byte) error
	Serialize() []byte
}

// newLSABody returns the empty body for an LS type. Types without a
// dedicated decoder (NSSA, opaque, anything undefined) map to UnknownLSA
// carrying the raw body bytes.
func newLSABody(t LSType) LSABody {
	switch t {
	case LSTypeRouter:
		return &RouterLSA{}
	case LSTypeNetwork:
		return &NetworkLSA{}
	case LSTypeSummary, LSTypeSummaryASBR:
		return &SummaryLSA{}
	case LSTypeASExternal:
		return &ASExternalLSA{}
	default:
		return &UnknownLSA{Type: t}
	}
}

// LSA is one full link-state advertisement: the fixed header plus the
// type-selected body.
type LSA struct {
	Header LSAHeader
	Body   LSABody
}

// NewLSA pairs a header with its body. The header's type tag selects the
// body shape at encode time, so it must match the body's concrete type.
func NewLSA(header LSAHeader, body LSABody) *LSA {
	return &LSA{Header: header, Body: body}
}

// DecodeFromBytes decodes one LSA from data, which must hold exactly the
// bytes the header's length field declares.
func (l *LSA) DecodeFromBytes(data []byte) error {
	if err := l.Header.DecodeFromBytes(data); err != nil {
		return err
	}
	if int(l.Header.Length) < int(LSAHeaderLength) || int(l.Header.Length) != len(data) {
		return fmt.Errorf("%w: LSA declares %d bytes, got %d", ErrMalformedCount, l.Header.Length, len(data))
	}
	l.Body = newLSABody(l.Header.Type)
	return l.Body.DecodeFromBytes(data[LSAHeaderLength:])
}

// Serialize encodes the LSA, recomputing the header's length field from
// the actual body size. The LSA checksum field is carried verbatim.
func (l *LSA) Serialize() []byte {
	body := l.Body.Serialize()
	l.Header.Length = LSAHeaderLength + uint16(len(body))
	return append(l.Header.Serialize(), body...)
}

func (l *LSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := enc.AddObject("header", &l.Header); err != nil {
		return err
	}
	return enc.AddObject("body", l.Body)
}

// TOSMetric is one additional type-of-service metric inside a router link
// (RFC2328 A.4.2).
type TOSMetric struct {
	TOS      uint8
	Reserved uint8
	Metric   uint16
}

const tosMetricLength = 4

// RouterLink is one link record of a Router-LSA. The meaning of ID and
// Data depends on the link type. TOSMetrics holds the metrics beyond the
// mandatory TOS-0 one; their count is explicit on the wire.
type RouterLink struct {
	ID         netip.Addr
	Data       netip.Addr
	Type       uint8
	Metric     uint16 // TOS 0 metric
	TOSMetrics []TOSMetric
}

const routerLinkFixedLength = 12

func (l *RouterLink) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("id", l.ID.String())
	enc.AddString("data", l.Data.String())
	enc.AddUint8("type", l.Type)
	enc.AddUint16("metric", l.Metric)
	enc.AddInt("tosMetrics", len(l.TOSMetrics))
	return nil
}

// Router-LSA body (RFC2328 A.4.2): 16-bit flags, an explicit link count,
// then exactly that many link records.
type RouterLSA struct {
	Flags uint16
	Links []RouterLink
}

func (l *RouterLSA) DecodeFromBytes(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: need 4 Router-LSA bytes, got %d", ErrTruncated, len(data))
	}
	l.Flags = binary.BigEndian.Uint16(data[0:2])
	numLinks := binary.BigEndian.Uint16(data[2:4])
	data = data[4:]

	l.Links = nil
	for i := uint16(0); i < numLinks; i++ {
		if len(data) < routerLinkFixedLength {
			return fmt.Errorf("%w: link count %d, but link %d is truncated", ErrMalformedCount, numLinks, i+1)
		}
		link := RouterLink{
			ID:     addrFromSlice(data[0:4]),
			Data:   addrFromSlice(data[4:8]),
			Type:   data[8],
			Metric: binary.BigEndian.Uint16(data[10:12]),
		}
		numTOS := int(data[9])
		data = data[routerLinkFixedLength:]
		if len(data) < numTOS*tosMetricLength {
			return fmt.Errorf("%w: link declares %d TOS metrics, %d bytes remain", ErrMalformedCount, numTOS, len(data))
		}
		for t := 0; t < numTOS; t++ {
			link.TOSMetrics = append(link.TOSMetrics, TOSMetric{
				TOS:      data[0],
				Reserved: data[1],
				Metric:   binary.BigEndian.Uint16(data[2:4]),
			})
			data = data[tosMetricLength:]
		}
		l.Links = append(l.Links, link)
	}
	if len(data) != 0 {
		return fmt.Errorf("%w: %d trailing bytes after %d links", ErrMalformedCount, len(data), numLinks)
	}
	return nil
}

func (l *RouterLSA) Serialize() []byte {
	buf := AppendByteSlices(
		Uint16ToByteSlice(l.Flags),
		Uint16ToByteSlice(uint16(len(l.Links))),
	)
	for i := range l.Links {
		link := &l.Links[i]
		fixed := make([]byte, routerLinkFixedLength)
		copy(fixed[0:4], addrToSlice(link.ID))
		copy(fixed[4:8], addrToSlice(link.Data))
		fixed[8] = link.Type
		fixed[9] = uint8(len(link.TOSMetrics))
		binary.BigEndian.PutUint16(fixed[10:12], link.Metric)
		buf = append(buf, fixed...)
		for _, tm := range link.TOSMetrics {
			buf = append(buf, tm.TOS, tm.Reserved)
			buf = append(buf, Uint16ToByteSlice(tm.Metric)...)
		}
	}
	return buf
}

func (l *RouterLSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint16("flags", l.Flags)
	return enc.AddArray("links", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for i := range l.Links {
			if err := ae.AppendObject(&l.Links[i]); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Network-LSA body (RFC2328 A.4.3): the network mask, then attached
// router IDs to the end of the body region.
type NetworkLSA struct {
	NetworkMask     netip.Addr
	AttachedRouters []netip.Addr
}

func (l *NetworkLSA) DecodeFromBytes(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: need 4 Network-LSA bytes, got %d", ErrTruncated, len(data))
	}
	l.NetworkMask = addrFromSlice(data[0:4])

	var err error
	if l.AttachedRouters, err = decodeAddrList(data[4:]); err != nil {
		return err
	}
	return nil
}

func (l *NetworkLSA) Serialize() []byte {
	return append(addrToSlice(l.NetworkMask), serializeAddrList(l.AttachedRouters)...)
}

func (l *NetworkLSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("networkMask", l.NetworkMask.String())
	return enc.AddArray("attachedRouters", addrArray(l.AttachedRouters))
}

// SummaryTOSRoute is one additional TOS-specific route of a Summary-LSA.
type SummaryTOSRoute struct {
	TOS    uint8
	Metric uint32 // 24 bits on the wire
}

const summaryTOSRouteLength = 4

// Summary-LSA body (RFC2328 A.4.4), shared by type 3 (network) and type 4
// (ASBR) advertisements; the two differ only in the header's type tag.
// TOSRoutes runs to the end of the body region.
type SummaryLSA struct {
	NetworkMask netip.Addr
	TOS         uint8
	Metric      uint32 // 24 bits on the wire
	TOSRoutes   []SummaryTOSRoute
}

const summaryFixedLength = 8

func (l *SummaryLSA) DecodeFromBytes(data []byte) error {
	if len(data) < summaryFixedLength {
		return fmt.Errorf("%w: need %d Summary-LSA bytes, got %d", ErrTruncated, summaryFixedLength, len(data))
	}
	l.NetworkMask = addrFromSlice(data[0:4])
	l.TOS = data[4]
	l.Metric = Uint24FromByteSlice(data[5:8])
	data = data[summaryFixedLength:]

	if len(data)%summaryTOSRouteLength != 0 {
		return fmt.Errorf("%w: TOS route region of %d bytes is not a multiple of %d", ErrMalformedCount, len(data), summaryTOSRouteLength)
	}
	l.TOSRoutes = nil
	for len(data) > 0 {
		l.TOSRoutes = append(l.TOSRoutes, SummaryTOSRoute{
			TOS:    data[0],
			Metric: Uint24FromByteSlice(data[1:4]),
		})
		data = data[summaryTOSRouteLength:]
	}
	return nil
}

func (l *SummaryLSA) Serialize() []byte {
	buf := AppendByteSlices(
		addrToSlice(l.NetworkMask),
		[]byte{l.TOS},
		Uint24ToByteSlice(l.Metric),
	)
	for _, r := range l.TOSRoutes {
		buf = append(buf, r.TOS)
		buf = append(buf, Uint24ToByteSlice(r.Metric)...)
	}
	return buf
}

func (l *SummaryLSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("networkMask", l.NetworkMask.String())
	enc.AddUint8("tos", l.TOS)
	enc.AddUint32("metric", l.Metric)
	enc.AddInt("tosRoutes", len(l.TOSRoutes))
	return nil
}

// ASExternalBit marks a type 2 external metric in the Flags byte of an
// AS-External-LSA.
const ASExternalBit uint8 = 0x80

// AS-External-LSA body (RFC2328 A.4.5). Flags combines the external-type
// bit with reserved bits, kept verbatim. The body is a fixed 16 bytes.
type ASExternalLSA struct {
	NetworkMask      netip.Addr
	Flags            uint8
	Metric           uint32 // 24 bits on the wire
	ForwardingAddr   netip.Addr
	ExternalRouteTag uint32
}

const asExternalLength = 16

// IsType2 reports whether the external metric is type 2 (compared after
// internal path cost rather than added to it).
func (l *ASExternalLSA) IsType2() bool {
	return IsBitSet(l.Flags, ASExternalBit)
}

func (l *ASExternalLSA) DecodeFromBytes(data []byte) error {
	if len(data) < asExternalLength {
		return fmt.Errorf("%w: need %d AS-External-LSA bytes, got %d", ErrTruncated, asExternalLength, len(data))
	}
	if len(data) > asExternalLength {
		return fmt.Errorf("%w: %d trailing bytes after AS-External-LSA body", ErrMalformedCount, len(data)-asExternalLength)
	}
	l.NetworkMask = addrFromSlice(data[0:4])
	l.Flags = data[4]
	l.Metric = Uint24FromByteSlice(data[5:8])
	l.ForwardingAddr = addrFromSlice(data[8:12])
	l.ExternalRouteTag = binary.BigEndian.Uint32(data[12:16])
	return nil
}

func (l *ASExternalLSA) Serialize() []byte {
	return AppendByteSlices(
		addrToSlice(l.NetworkMask),
		[]byte{l.Flags},
		Uint24ToByteSlice(l.Metric),
		addrToSlice(l.ForwardingAddr),
		Uint32ToByteSlice(l.ExternalRouteTag),
	)
}

func (l *ASExternalLSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("networkMask", l.NetworkMask.String())
	enc.AddBool("type2", l.IsType2())
	enc.AddUint32("metric", l.Metric)
	enc.AddString("forwardingAddr", l.ForwardingAddr.String())
	enc.AddUint32("externalRouteTag", l.ExternalRouteTag)
	return nil
}

// UnknownLSA carries the body of an LS type the codec has no dedicated
// decoder for, sized by the header's declared length. The raw bytes are
// preserved so the LSA re-encodes to the original form.
type UnknownLSA struct {
	Type LSType
	Data []byte
}

func (l *UnknownLSA) DecodeFromBytes(data []byte) error {
	l.Data = make([]byte, len(data))
	copy(l.Data, data)
	return nil
}

func (l *UnknownLSA) Serialize() []byte {
	buf := make([]byte, len(l.Data))
	copy(buf, l.Data)
	return buf
}

func (l *UnknownLSA) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", l.Type.String())
	enc.AddBinary("data", l.Data)
	return nil
}
