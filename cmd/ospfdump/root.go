// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package main

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routelab/ospf/internal/config"
	"github.com/routelab/ospf/pkg/logger"
	"github.com/routelab/ospf/pkg/packet/ospf"
)

var (
	jsonFmt    bool
	hexInput   string
	configFile string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ospfdump [pcap file]",
		Short:         "Decode OSPFv2 packets from a pcap file or a hex string",
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&jsonFmt, "json", "j", false, "output json format")
	rootCmd.PersistentFlags().StringVar(&hexInput, "hex", "", "decode a single packet from a hex string")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file")
	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	l, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = l.Sync()
	}()

	if hexInput != "" {
		buf, err := decodeHexString(hexInput)
		if err != nil {
			return err
		}
		return dumpPacket(l, buf)
	}

	if len(args) != 1 {
		return errors.New("nothing to decode: give a pcap file or --hex")
	}
	return dumpPcapFile(l, args[0])
}

func newLogger() (*zap.Logger, error) {
	if configFile == "" {
		return logger.ConsoleInit(jsonFmt, false), nil
	}
	c, err := config.ReadConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.Global.Log.Path, 0755); err != nil {
		return nil, err
	}
	fp, err := os.OpenFile(c.Global.Log.Path+c.Global.Log.Name, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return logger.LogInit(fp, c.Global.Debug), nil
}

func decodeHexString(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(cleaned)
}

func dumpPacket(l *zap.Logger, buf []byte) error {
	p, err := ospf.ParsePacket(buf)
	if err != nil {
		return err
	}
	l.Info("decoded OSPFv2 packet", zap.Object("packet", p))
	return nil
}

func dumpPcapFile(l *zap.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return err
	}

	src := gopacket.NewPacketSource(r, r.LinkType())
	count := 0
	for pkt := range src.Packets() {
		ipLayer := pkt.Layer(layers.LayerTypeIPv4)
		if ipLayer == nil {
			continue
		}
		ip := ipLayer.(*layers.IPv4)
		if ip.Protocol != layers.IPProtocolOSPF {
			continue
		}
		count++
		if err := dumpPacket(l, trimToDeclaredLength(ip.Payload)); err != nil {
			l.Warn("failed to decode OSPFv2 packet", zap.Int("index", count), zap.Error(err))
		}
	}
	l.Info("done", zap.Int("ospfPackets", count))
	return nil
}

// trimToDeclaredLength cuts link-layer padding off the IP payload: the
// codec requires a buffer holding exactly one packet.
func trimToDeclaredLength(raw []byte) []byte {
	if len(raw) >= 4 {
		if dl := int(binary.BigEndian.Uint16(raw[2:4])); dl <= len(raw) {
			return raw[:dl]
		}
	}
	return raw
}
