// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package ospf

import (
	"encoding/binary"
	"encoding/hex"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Captured OSPFv2 packets, checksums intact.
const (
	helloHex = `
		02 01 00 2c c0 a8 aa 08 00 00 00 01 27 3b 00 00
		00 00 00 00 00 00 00 00 ff ff ff 00 00 0a 02 01
		00 00 00 28 c0 a8 aa 08 00 00 00 00`

	dbDescHex = `
		02 02 00 20 c0 a8 aa 08 00 00 00 01 a0 52 00 00
		00 00 00 00 00 00 00 00 05 dc 02 07 41 77 a9 7e`

	dbDescLSAHex = `
		02 02 00 ac c0 a8 aa 03 00 00 00 01 f0 67 00 00
		00 00 00 00 00 00 00 00 05 dc 02 02 41 77 a9 7e
		00 01 02 01 c0 a8 aa 03 c0 a8 aa 03 80 00 00 01
		3a 9c 00 30 00 02 02 05 50 d4 10 00 c0 a8 aa 02
		80 00 00 01 2a 49 00 24 00 02 02 05 94 79 ab 00
		c0 a8 aa 02 80 00 00 01 34 a5 00 24 00 02 02 05
		c0 82 78 00 c0 a8 aa 02 80 00 00 01 d3 19 00 24
		00 02 02 05 c0 a8 00 00 c0 a8 aa 02 80 00 00 01
		37 08 00 24 00 02 02 05 c0 a8 01 00 c0 a8 aa 02
		80 00 00 01 2c 12 00 24 00 02 02 05 c0 a8 ac 00
		c0 a8 aa 02 80 00 00 01 33 41 00 24`

	lsRequestHex = `
		02 03 00 24 c0 a8 aa 03 00 00 00 01 bd c7 00 00
		00 00 00 00 00 00 00 00 00 00 00 01 c0 a8 aa 08
		c0 a8 aa 08`

	lsRequestMultiHex = `
		02 03 00 6c c0 a8 aa 08 00 00 00 01 75 95 00 00
		00 00 00 00 00 00 00 00 00 00 00 01 c0 a8 aa 03
		c0 a8 aa 03 00 00 00 05 50 d4 10 00 c0 a8 aa 02
		00 00 00 05 94 79 ab 00 c0 a8 aa 02 00 00 00 05
		c0 82 78 00 c0 a8 aa 02 00 00 00 05 c0 a8 00 00
		c0 a8 aa 02 00 00 00 05 c0 a8 01 00 c0 a8 aa 02
		00 00 00 05 c0 a8 ac 00 c0 a8 aa 02`

	lsUpdateMultiHex = `
		02 04 01 24 c0 a8 aa 03 00 00 00 01 36 6b 00 00
		00 00 00 00 00 00 00 00 00 00 00 07 00 02 02 01
		c0 a8 aa 03 c0 a8 aa 03 80 00 00 01 3a 9c 00 30
		02 00 00 02 c0 a8 aa 00 ff ff ff 00 03 00 00 0a
		c0 a8 aa 00 ff ff ff 00 03 00 00 0a 00 03 02 05
		50 d4 10 00 c0 a8 aa 02 80 00 00 01 2a 49 00 24
		ff ff ff ff 80 00 00 14 00 00 00 00 00 00 00 00
		00 03 02 05 94 79 ab 00 c0 a8 aa 02 80 00 00 01
		34 a5 00 24 ff ff ff 00 80 00 00 14 c0 a8 aa 01
		00 00 00 00 00 03 02 05 c0 82 78 00 c0 a8 aa 02
		80 00 00 01 d3 19 00 24 ff ff ff 00 80 00 00 14
		00 00 00 00 00 00 00 00 00 03 02 05 c0 a8 00 00
		c0 a8 aa 02 80 00 00 01 37 08 00 24 ff ff ff 00
		80 00 00 14 00 00 00 00 00 00 00 00 00 03 02 05
		c0 a8 01 00 c0 a8 aa 02 80 00 00 01 2c 12 00 24
		ff ff ff 00 80 00 00 14 00 00 00 00 00 00 00 00
		00 03 02 05 c0 a8 ac 00 c0 a8 aa 02 80 00 00 01
		33 41 00 24 ff ff ff 00 80 00 00 14 c0 a8 aa 0a
		00 00 00 00`

	lsAckHex = `
		02 05 00 2c c0 a8 aa 08 00 00 00 01 02 f2 00 00
		00 00 00 00 00 00 00 00 00 01 02 01 c0 a8 aa 03
		c0 a8 aa 03 80 00 00 02 38 9d 00 30`
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	cleaned := strings.NewReplacer(" ", "", "\t", "", "\n", "").Replace(s)
	buf, err := hex.DecodeString(cleaned)
	require.NoError(t, err)
	return buf
}

func mustAddr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	require.NoError(t, err)
	return a
}

// rawPacket assembles a packet around the given payload bytes with a valid
// length field and checksum, for crafting malformed-payload inputs.
func rawPacket(typ PacketType, authType uint16, payload []byte) []byte {
	buf := make([]byte, int(HeaderLength)+len(payload))
	buf[0] = Version
	buf[1] = uint8(typ)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(buf)))
	binary.BigEndian.PutUint16(buf[14:16], authType)
	copy(buf[HeaderLength:], payload)
	cs := InternetChecksum(buf[:authOffset], buf[authOffset+authLength:])
	binary.BigEndian.PutUint16(buf[checksumOffset:checksumOffset+2], cs)
	return buf
}

func TestParsePacket_Vectors(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedType PacketType
	}{
		{name: "Hello", input: helloHex, expectedType: TypeHello},
		{name: "Database Description, no LSA headers", input: dbDescHex, expectedType: TypeDatabaseDescription},
		{name: "Database Description with LSA headers", input: dbDescLSAHex, expectedType: TypeDatabaseDescription},
		{name: "Link State Request, single entry", input: lsRequestHex, expectedType: TypeLSRequest},
		{name: "Link State Request, multiple entries", input: lsRequestMultiHex, expectedType: TypeLSRequest},
		{name: "Link State Update, multiple LSAs", input: lsUpdateMultiHex, expectedType: TypeLSUpdate},
		{name: "Link State Acknowledgment", input: lsAckHex, expectedType: TypeLSAcknowledgment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := mustHex(t, tt.input)
			p, err := ParsePacket(buf)
			require.NoError(t, err)

			assert.Equal(t, Version, p.Version)
			assert.Equal(t, tt.expectedType, p.Type)
			assert.Equal(t, tt.expectedType, p.Payload.PacketType())
			assert.Equal(t, len(buf), int(p.Length))

			// Re-encoding must reproduce the captured bytes exactly,
			// checksum included.
			out, err := p.Serialize()
			require.NoError(t, err)
			assert.Equal(t, buf, out)
		})
	}
}

func TestParsePacket_Hello(t *testing.T) {
	buf := mustHex(t, helloHex)
	p, err := ParsePacket(buf)
	require.NoError(t, err)

	assert.Equal(t, mustAddr(t, "192.168.170.8"), p.RouterID)
	assert.Equal(t, mustAddr(t, "0.0.0.1"), p.AreaID)
	assert.Equal(t, AuthTypeNull, p.AuthType)
	assert.Equal(t, uint64(0), p.AuthData)
	assert.Equal(t, uint16(0x273b), p.Checksum)

	hello, ok := p.Payload.(*HelloPayload)
	require.True(t, ok)
	assert.Equal(t, mustAddr(t, "255.255.255.0"), hello.NetworkMask)
	assert.Equal(t, uint16(10), hello.HelloInterval)
	assert.True(t, hello.Options.External())
	assert.False(t, hello.Options.NSSA())
	assert.Equal(t, uint8(1), hello.RouterPriority)
	assert.Equal(t, uint32(40), hello.RouterDeadInterval)
	assert.Equal(t, p.RouterID, hello.DesignatedRouter)
	assert.Equal(t, mustAddr(t, "0.0.0.0"), hello.BackupDesignatedRouter)
	assert.Empty(t, hello.Neighbors)
}

func TestParsePacket_DBDescription(t *testing.T) {
	p, err := ParsePacket(mustHex(t, dbDescHex))
	require.NoError(t, err)

	dd, ok := p.Payload.(*DBDescriptionPayload)
	require.True(t, ok)
	assert.Equal(t, uint16(1500), dd.InterfaceMTU)
	assert.True(t, dd.Options.External())
	assert.True(t, dd.Flags.IsExchangeStart())
	assert.False(t, dd.Flags.OOBResync())
	assert.Equal(t, uint32(0x4177a97e), dd.SequenceNumber)
	assert.Empty(t, dd.LSAHeaders)

	p, err = ParsePacket(mustHex(t, dbDescLSAHex))
	require.NoError(t, err)
	dd = p.Payload.(*DBDescriptionPayload)
	require.Len(t, dd.LSAHeaders, 7)
	assert.Equal(t, LSTypeRouter, dd.LSAHeaders[0].Type)
	assert.Equal(t, LSTypeASExternal, dd.LSAHeaders[1].Type)
	assert.Equal(t, uint16(0x3a9c), dd.LSAHeaders[0].Checksum)
	assert.Equal(t, uint16(48), dd.LSAHeaders[0].Length)
}

func TestParsePacket_LSRequest(t *testing.T) {
	p, err := ParsePacket(mustHex(t, lsRequestHex))
	require.NoError(t, err)

	req, ok := p.Payload.(*LSRequestPayload)
	require.True(t, ok)
	require.Len(t, req.Entries, 1)
	assert.Equal(t, uint32(LSTypeRouter), req.Entries[0].LSType)
	assert.Equal(t, uint32(0xc0a8aa08), req.Entries[0].LSID)
	assert.Equal(t, mustAddr(t, "192.168.170.8"), req.Entries[0].AdvRouter)

	p, err = ParsePacket(mustHex(t, lsRequestMultiHex))
	require.NoError(t, err)
	req = p.Payload.(*LSRequestPayload)
	assert.Len(t, req.Entries, 7)
	assert.Equal(t, uint32(LSTypeASExternal), req.Entries[6].LSType)
}

func TestParsePacket_LSUpdate(t *testing.T) {
	p, err := ParsePacket(mustHex(t, lsUpdateMultiHex))
	require.NoError(t, err)

	upd, ok := p.Payload.(*LSUpdatePayload)
	require.True(t, ok)
	require.Len(t, upd.LSAs, 7)

	router, ok := upd.LSAs[0].Body.(*RouterLSA)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0200), router.Flags)
	require.Len(t, router.Links, 2)
	assert.Equal(t, mustAddr(t, "192.168.170.0"), router.Links[0].ID)
	assert.Equal(t, mustAddr(t, "255.255.255.0"), router.Links[0].Data)
	assert.Equal(t, uint8(3), router.Links[0].Type)
	assert.Equal(t, uint16(10), router.Links[0].Metric)
	assert.Empty(t, router.Links[0].TOSMetrics)

	ext, ok := upd.LSAs[2].Body.(*ASExternalLSA)
	require.True(t, ok)
	assert.Equal(t, mustAddr(t, "255.255.255.0"), ext.NetworkMask)
	assert.True(t, ext.IsType2())
	assert.Equal(t, uint32(20), ext.Metric)
	assert.Equal(t, mustAddr(t, "192.168.170.1"), ext.ForwardingAddr)
	assert.Equal(t, uint32(0), ext.ExternalRouteTag)
}

func TestParsePacket_LSAcknowledgment(t *testing.T) {
	p, err := ParsePacket(mustHex(t, lsAckHex))
	require.NoError(t, err)

	ack, ok := p.Payload.(*LSAcknowledgePayload)
	require.True(t, ok)
	require.Len(t, ack.LSAHeaders, 1)
	assert.Equal(t, LSTypeRouter, ack.LSAHeaders[0].Type)
	assert.Equal(t, uint32(0x80000002), ack.LSAHeaders[0].SequenceNumber)
}

func TestParsePacket_ChecksumRejection(t *testing.T) {
	orig := mustHex(t, helloHex)

	for byteIdx := 0; byteIdx < len(orig); byteIdx++ {
		if byteIdx >= authOffset && byteIdx < authOffset+authLength {
			continue // auth region is outside the checksummed range
		}
		for bit := 0; bit < 8; bit++ {
			buf := make([]byte, len(orig))
			copy(buf, orig)
			buf[byteIdx] ^= 1 << bit

			_, err := ParsePacket(buf)
			assert.ErrorIs(t, err, ErrChecksumMismatch, "flipped bit %d of byte %d", bit, byteIdx)
		}
	}
}

func TestParsePacket_AuthRegionNotChecksummed(t *testing.T) {
	buf := mustHex(t, helloHex)
	buf[authOffset+2] ^= 0x40

	p, err := ParsePacket(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0000400000000000), p.AuthData)
}

func TestParsePacket_UnknownType(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x01}
	buf := rawPacket(PacketType(9), AuthTypeNull, payload)

	p, err := ParsePacket(buf)
	require.NoError(t, err)

	unknown, ok := p.Payload.(*UnknownPayload)
	require.True(t, ok)
	assert.Equal(t, PacketType(9), unknown.Type)
	assert.Equal(t, PacketType(9), unknown.PacketType())
	assert.Equal(t, payload, unknown.Data)

	out, err := p.Serialize()
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestParsePacket_Errors(t *testing.T) {
	tooLong := mustHex(t, helloHex)
	binary.BigEndian.PutUint16(tooLong[2:4], uint16(len(tooLong)+4))
	binary.BigEndian.PutUint16(tooLong[checksumOffset:checksumOffset+2], 0)
	binary.BigEndian.PutUint16(tooLong[checksumOffset:checksumOffset+2],
		InternetChecksum(tooLong[:authOffset], tooLong[authOffset+authLength:]))

	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{
			name:     "Buffer shorter than the fixed header",
			input:    mustHex(t, helloHex)[:23],
			expected: ErrTruncated,
		},
		{
			name:     "Declared length disagrees with buffer size",
			input:    tooLong,
			expected: ErrMalformedCount,
		},
		{
			name:     "Cryptographic authentication type",
			input:    rawPacket(TypeHello, 2, mustHex(t, helloHex)[24:]),
			expected: ErrUnsupportedAuthType,
		},
		{
			name:     "Hello shorter than its fixed fields",
			input:    rawPacket(TypeHello, AuthTypeNull, make([]byte, 12)),
			expected: ErrTruncated,
		},
		{
			name:     "Hello neighbor region not a multiple of 4",
			input:    rawPacket(TypeHello, AuthTypeNull, make([]byte, helloFixedLength+2)),
			expected: ErrMalformedCount,
		},
		{
			name:     "Link State Request with a partial entry",
			input:    rawPacket(TypeLSRequest, AuthTypeNull, make([]byte, lsRequestEntryLength+4)),
			expected: ErrMalformedCount,
		},
		{
			name:     "Database Description with a partial LSA header",
			input:    rawPacket(TypeDatabaseDescription, AuthTypeNull, make([]byte, dbDescriptionFixedLength+10)),
			expected: ErrMalformedCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePacket(tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestParsePacket_LSUpdateCountMismatch(t *testing.T) {
	// One well-formed Router-LSA but an advertisement count of 3.
	lsa := NewLSA(LSAHeader{
		Age:            1,
		Type:           LSTypeRouter,
		LSID:           0x01010101,
		AdvRouter:      netip.MustParseAddr("1.1.1.1"),
		SequenceNumber: 0x80000001,
	}, &RouterLSA{})
	payload := AppendByteSlices(Uint32ToByteSlice(3), lsa.Serialize())

	_, err := ParsePacket(rawPacket(TypeLSUpdate, AuthTypeNull, payload))
	assert.ErrorIs(t, err, ErrMalformedCount)
}

func TestParsePacket_LSUpdateTrailingBytes(t *testing.T) {
	lsa := NewLSA(LSAHeader{
		Age:            1,
		Type:           LSTypeRouter,
		LSID:           0x01010101,
		AdvRouter:      netip.MustParseAddr("1.1.1.1"),
		SequenceNumber: 0x80000001,
	}, &RouterLSA{})
	payload := AppendByteSlices(Uint32ToByteSlice(1), lsa.Serialize(), []byte{0x00})

	_, err := ParsePacket(rawPacket(TypeLSUpdate, AuthTypeNull, payload))
	assert.ErrorIs(t, err, ErrMalformedCount)
}

func TestPacketSerialize_UnsupportedAuthType(t *testing.T) {
	p := NewPacket(netip.MustParseAddr("1.1.1.1"), netip.MustParseAddr("0.0.0.0"), &HelloPayload{})
	p.AuthType = 1

	_, err := p.Serialize()
	assert.ErrorIs(t, err, ErrUnsupportedAuthType)
}

func TestPacketRoundTrip(t *testing.T) {
	routerID := netip.MustParseAddr("10.0.0.1")
	areaID := netip.MustParseAddr("0.0.0.0")
	mask := netip.MustParseAddr("255.255.255.0")

	tests := []struct {
		name    string
		payload Payload
	}{
		{
			name: "Hello with neighbors",
			payload: &HelloPayload{
				NetworkMask:            mask,
				HelloInterval:          10,
				Options:                OptExternal,
				RouterPriority:         1,
				RouterDeadInterval:     40,
				DesignatedRouter:       routerID,
				BackupDesignatedRouter: netip.MustParseAddr("10.0.0.2"),
				Neighbors: []netip.Addr{
					netip.MustParseAddr("10.0.0.2"),
					netip.MustParseAddr("10.0.0.3"),
				},
			},
		},
		{
			name: "Database Description with reserved flag bits",
			payload: &DBDescriptionPayload{
				InterfaceMTU:   1500,
				Options:        OptExternal | OptO,
				Flags:          DDFlags(0xf0) | DDFlagInit | DDFlagMore | DDFlagMaster,
				SequenceNumber: 0xdeadbeef,
				LSAHeaders: []LSAHeader{
					{
						Age:            120,
						Options:        OptExternal,
						Type:           LSTypeNetwork,
						LSID:           0x0a000001,
						AdvRouter:      routerID,
						SequenceNumber: 0x80000004,
						Checksum:       0x1234,
						Length:         32,
					},
				},
			},
		},
		{
			name: "Link State Request",
			payload: &LSRequestPayload{
				Entries: []LSRequestEntry{
					{LSType: uint32(LSTypeRouter), LSID: 0x0a000001, AdvRouter: routerID},
					{LSType: uint32(LSTypeASExternal), LSID: 0xc0a80000, AdvRouter: routerID},
				},
			},
		},
		{
			name: "Link State Update with every LSA kind",
			payload: &LSUpdatePayload{
				LSAs: []LSA{
					{
						Header: LSAHeader{Age: 1, Options: OptExternal, Type: LSTypeRouter, LSID: 0x0a000001, AdvRouter: routerID, SequenceNumber: 0x80000001},
						Body: &RouterLSA{
							Flags: 0x0100,
							Links: []RouterLink{
								{
									ID:     netip.MustParseAddr("10.0.1.0"),
									Data:   mask,
									Type:   3,
									Metric: 10,
									TOSMetrics: []TOSMetric{
										{TOS: 5, Metric: 100},
									},
								},
							},
						},
					},
					{
						Header: LSAHeader{Age: 2, Options: OptExternal, Type: LSTypeNetwork, LSID: 0x0a000101, AdvRouter: routerID, SequenceNumber: 0x80000002},
						Body: &NetworkLSA{
							NetworkMask: mask,
							AttachedRouters: []netip.Addr{
								routerID,
								netip.MustParseAddr("10.0.0.2"),
							},
						},
					},
					{
						Header: LSAHeader{Age: 3, Options: OptExternal, Type: LSTypeSummary, LSID: 0x0a000200, AdvRouter: routerID, SequenceNumber: 0x80000003},
						Body: &SummaryLSA{
							NetworkMask: mask,
							Metric:      30,
							TOSRoutes: []SummaryTOSRoute{
								{TOS: 5, Metric: 60},
							},
						},
					},
					{
						Header: LSAHeader{Age: 4, Options: OptExternal, Type: LSTypeSummaryASBR, LSID: 0x0a000300, AdvRouter: routerID, SequenceNumber: 0x80000004},
						Body: &SummaryLSA{
							NetworkMask: netip.MustParseAddr("0.0.0.0"),
							Metric:      1,
						},
					},
					{
						Header: LSAHeader{Age: 5, Options: OptExternal, Type: LSTypeASExternal, LSID: 0xc0a80000, AdvRouter: routerID, SequenceNumber: 0x80000005},
						Body: &ASExternalLSA{
							NetworkMask:      mask,
							Flags:            ASExternalBit,
							Metric:           20,
							ForwardingAddr:   netip.MustParseAddr("10.0.0.9"),
							ExternalRouteTag: 0x29a,
						},
					},
					{
						Header: LSAHeader{Age: 6, Options: OptExternal, Type: LSTypeNSSAASExternal, LSID: 0xc0a80100, AdvRouter: routerID, SequenceNumber: 0x80000006},
						Body: &UnknownLSA{
							Type: LSTypeNSSAASExternal,
							Data: []byte{0xff, 0xff, 0xff, 0xfc, 0x80, 0x00, 0x00, 0x64, 0xc0, 0xa8, 0x0a, 0x01, 0x00, 0x00, 0x00, 0x00},
						},
					},
				},
			},
		},
		{
			name: "Link State Acknowledgment",
			payload: &LSAcknowledgePayload{
				LSAHeaders: []LSAHeader{
					{Age: 10, Options: OptExternal, Type: LSTypeRouter, LSID: 0x0a000001, AdvRouter: routerID, SequenceNumber: 0x80000007, Checksum: 0xabcd, Length: 48},
				},
			},
		},
		{
			name:    "Unknown payload keeps its tag and bytes",
			payload: &UnknownPayload{Type: PacketType(11), Data: []byte{0x01, 0x02, 0x03}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPacket(routerID, areaID, tt.payload)
			buf, err := p.Serialize()
			require.NoError(t, err)
			assert.Equal(t, int(p.Length), len(buf))

			decoded, err := ParsePacket(buf)
			require.NoError(t, err)
			assert.Equal(t, p, decoded)

			out, err := decoded.Serialize()
			require.NoError(t, err)
			assert.Equal(t, buf, out)
		})
	}
}
