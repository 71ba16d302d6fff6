// Package file reads and writes single packets as pcap files.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/log"
)

const snapLen = 65536

// Source reads frames from a pcap file.
type Source struct {
	path   string
	file   *os.File
	reader *pcapgo.Reader
}

func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}
	return &Source{path: path}, nil
}

func (s *Source) Start() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open pcap file %s: %w", s.path, err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read pcap header %s: %w", s.path, err)
	}
	s.file, s.reader = f, r
	return nil
}

func (s *Source) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	if s.reader == nil {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("file source not started")
	}
	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		if err == io.EOF {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("failed to read packet: %w", err)
	}
	return data, ci, nil
}

func (s *Source) LinkType() layers.LinkType {
	if s.reader == nil {
		return layers.LinkTypeEthernet
	}
	return s.reader.LinkType()
}

func (s *Source) Stop() error {
	if s.file != nil {
		err := s.file.Close()
		s.file, s.reader = nil, nil
		return err
	}
	return nil
}

// ReadFirstFrame decodes the first frame of a pcap file into an annotated
// buffer. Every byte, stored checksums included, is known.
func ReadFirstFrame(path string) (*core.PacketBuffer, core.Combination, error) {
	s, err := NewSource(path)
	if err != nil {
		return nil, "", err
	}
	if err := s.Start(); err != nil {
		return nil, "", err
	}
	defer s.Stop()

	if lt := s.LinkType(); lt != layers.LinkTypeEthernet {
		return nil, "", fmt.Errorf("%w: link type %s", core.ErrUnsupportedFrame, lt)
	}

	data, _, err := s.ReadPacket()
	if errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("%w: no frames in %s", core.ErrUnsupportedFrame, path)
	}
	if err != nil {
		return nil, "", err
	}

	c, frameLen, err := Classify(data)
	if err != nil {
		return nil, "", err
	}
	data = data[:frameLen]

	headers := core.EthernetLen + core.HeaderLen(c.Network()) + core.HeaderLen(c.Transport())
	buf, err := builder.BuildEmpty(c, frameLen-headers, false)
	if err != nil {
		return nil, "", err
	}
	copy(buf.Data, core.KnownBytes(data))

	log.GetLogger().WithFields(map[string]interface{}{
		"path":        path,
		"combination": c,
		"length":      frameLen,
	}).Debug("frame imported")
	return buf, c, nil
}

// Classify detects the combination of an Ethernet frame and returns the
// frame length without link-layer padding. Frames carrying IP or TCP options,
// extension headers or other protocols are rejected.
func Classify(data []byte) (core.Combination, int, error) {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	if pkt.Layer(layers.LayerTypeEthernet) == nil {
		return "", 0, fmt.Errorf("%w: not an Ethernet frame", core.ErrUnsupportedFrame)
	}

	var (
		network   core.HeaderKind
		transport core.HeaderKind
		frameLen  int
	)
	switch {
	case pkt.Layer(layers.LayerTypeIPv4) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		if int(ip.IHL)*4 != core.IPv4Len {
			return "", 0, fmt.Errorf("%w: IPv4 options present", core.ErrUnsupportedFrame)
		}
		network = core.KindIPv4
		frameLen = core.EthernetLen + int(ip.Length)
	case pkt.Layer(layers.LayerTypeIPv6) != nil:
		ip := pkt.Layer(layers.LayerTypeIPv6).(*layers.IPv6)
		if ip.NextHeader != layers.IPProtocolUDP && ip.NextHeader != layers.IPProtocolTCP {
			return "", 0, fmt.Errorf("%w: IPv6 next header %s", core.ErrUnsupportedFrame, ip.NextHeader)
		}
		network = core.KindIPv6
		frameLen = core.EthernetLen + core.IPv6Len + int(ip.Length)
	default:
		return "", 0, fmt.Errorf("%w: no IPv4 or IPv6 layer", core.ErrUnsupportedFrame)
	}

	switch {
	case pkt.Layer(layers.LayerTypeUDP) != nil:
		transport = core.KindUDP
	case pkt.Layer(layers.LayerTypeTCP) != nil:
		tcp := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
		if int(tcp.DataOffset)*4 != core.TCPLen {
			return "", 0, fmt.Errorf("%w: TCP options present", core.ErrUnsupportedFrame)
		}
		transport = core.KindTCP
	default:
		return "", 0, fmt.Errorf("%w: no UDP or TCP layer", core.ErrUnsupportedFrame)
	}

	minLen := core.EthernetLen + core.HeaderLen(network) + core.HeaderLen(transport)
	if frameLen < minLen || frameLen > len(data) {
		return "", 0, fmt.Errorf("%w: length field %d out of range", core.ErrUnsupportedFrame, frameLen)
	}

	c, err := core.CombinationOf(network, transport)
	if err != nil {
		return "", 0, err
	}
	return c, frameLen, nil
}

// WriteFrame writes buf as the only frame of an Ethernet pcap file. Unknown
// bytes are written as zero.
func WriteFrame(path string, buf *core.PacketBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create pcap file %s: %w", path, err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	unknown := 0
	for _, b := range buf.Data {
		if !b.IsKnown() {
			unknown++
		}
	}
	if unknown > 0 {
		log.GetLogger().WithField("path", path).Warnf("%d unknown bytes written as 00", unknown)
	}

	raw := buf.Raw()
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(raw),
		Length:        len(raw),
	}
	if err := w.WritePacket(ci, raw); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return f.Close()
}
