// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package ospf

import "go.uber.org/zap/zapcore"

// Options is the OSPF Options field carried in Hello packets, Database
// Description packets and LSA headers (RFC2328 A.2). It is kept as the raw
// wire byte so that unassigned bits survive a decode/encode round trip.
type Options uint8

const (
	OptMultiTopology  Options = 0x01 // MT
	OptExternal       Options = 0x02 // E
	OptMulticast      Options = 0x04 // MC
	OptNSSA           Options = 0x08 // N/P
	OptLLSData        Options = 0x10 // L
	OptDemandCircuits Options = 0x20 // DC
	OptO              Options = 0x40 // O
	OptDN             Options = 0x80 // DN
)

func (o Options) MultiTopology() bool  { return IsBitSet(o, OptMultiTopology) }
func (o Options) External() bool       { return IsBitSet(o, OptExternal) }
func (o Options) Multicast() bool      { return IsBitSet(o, OptMulticast) }
func (o Options) NSSA() bool           { return IsBitSet(o, OptNSSA) }
func (o Options) LLSData() bool        { return IsBitSet(o, OptLLSData) }
func (o Options) DemandCircuits() bool { return IsBitSet(o, OptDemandCircuits) }
func (o Options) O() bool              { return IsBitSet(o, OptO) }
func (o Options) DN() bool             { return IsBitSet(o, OptDN) }

func (o Options) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("multiTopology", o.MultiTopology())
	enc.AddBool("external", o.External())
	enc.AddBool("multicast", o.Multicast())
	enc.AddBool("nssa", o.NSSA())
	enc.AddBool("llsData", o.LLSData())
	enc.AddBool("demandCircuits", o.DemandCircuits())
	enc.AddBool("o", o.O())
	enc.AddBool("dn", o.DN())
	return nil
}

// DDFlags is the flags byte of a Database Description packet (RFC2328 A.3.3
// plus the OOBResync bit of RFC4811). The upper four bits are reserved and
// are preserved verbatim on a round trip, not zeroed.
type DDFlags uint8

const (
	DDFlagMaster    DDFlags = 0x01 // MS
	DDFlagMore      DDFlags = 0x02 // M
	DDFlagInit      DDFlags = 0x04 // I
	DDFlagOOBResync DDFlags = 0x08 // R
)

func (f DDFlags) Master() bool    { return IsBitSet(f, DDFlagMaster) }
func (f DDFlags) More() bool      { return IsBitSet(f, DDFlagMore) }
func (f DDFlags) Init() bool      { return IsBitSet(f, DDFlagInit) }
func (f DDFlags) OOBResync() bool { return IsBitSet(f, DDFlagOOBResync) }

// Reserved returns the upper four bits of the flags byte.
func (f DDFlags) Reserved() uint8 { return uint8(f) >> 4 }

// IsExchangeStart reports whether the Init, More and Master bits are all
// set, i.e. the packet opens a database exchange.
func (f DDFlags) IsExchangeStart() bool {
	return f.Master() && f.More() && f.Init()
}

func (f DDFlags) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("master", f.Master())
	enc.AddBool("more", f.More())
	enc.AddBool("init", f.Init())
	enc.AddBool("oobResync", f.OOBResync())
	return nil
}
