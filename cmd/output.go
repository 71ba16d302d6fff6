package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/csumlab/internal/config"
	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
)

const notAvailable = "N/A"

// renderTable writes rows as a bordered table.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func renderYAML(w io.Writer, doc interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func isYAML(format string) bool {
	return format == config.FormatYAML
}

func hex16(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}

// packetOptions are the flags shared by commands that build a packet.
type packetOptions struct {
	combination string
	payload     int
	file        string
}

func (o *packetOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.combination, "combination", "t", "",
		"ipv4_udp, ipv4_tcp, ipv6_udp or ipv6_tcp (default from config)")
	cmd.Flags().IntVarP(&o.payload, "payload", "p", -1,
		"payload size in bytes (default from config, else inferred from the byte string)")
}

func (o *packetOptions) addFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "read the byte string from a file")
}

// resolve fills unset options from the configuration.
func (o packetOptions) resolve(cfg *config.Config) packetOptions {
	if o.combination == "" {
		o.combination = cfg.Packet.Combination
	}
	if o.payload < 0 && cfg.Packet.PayloadSize > 0 {
		o.payload = cfg.Packet.PayloadSize
	}
	return o
}

// text returns the byte string from --file or the positional arguments.
func (o packetOptions) text(args []string) (string, error) {
	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", o.file, err)
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("a byte string argument or --file is required")
	}
	return strings.Join(args, " "), nil
}

// inferPayload resolves a negative payload size from the number of bytes in
// text beyond the headers.
func (o packetOptions) inferPayload(text string) (packetOptions, error) {
	if o.payload >= 0 {
		return o, nil
	}
	c, err := core.ParseCombination(o.combination)
	if err != nil {
		return o, err
	}
	bytes, err := builder.ParseByteString(text)
	if err != nil {
		return o, err
	}
	headers := core.EthernetLen + core.HeaderLen(c.Network()) + core.HeaderLen(c.Transport())
	o.payload = max(len(bytes)-headers, 0)
	return o, nil
}

// build parses text into a buffer, inferring the payload size when unset.
func (o packetOptions) build(text string) (*core.PacketBuffer, error) {
	o, err := o.inferPayload(text)
	if err != nil {
		return nil, err
	}
	return builder.FromByteString(core.Combination(o.combination), o.payload, text)
}

// checksumRows renders one row per checksum-bearing region, N/A where the
// engine produced no result.
func checksumRows(buf *core.PacketBuffer, results []core.ChecksumResult) [][]string {
	byProtocol := lo.KeyBy(results, func(r core.ChecksumResult) string { return r.Protocol })

	var rows [][]string
	for _, r := range buf.Regions {
		if !r.Kind.HasChecksum() {
			continue
		}
		value := notAvailable
		if res, ok := byProtocol[r.Kind.String()]; ok {
			value = hex16(res.Checksum)
		}
		rows = append(rows, []string{r.Kind.String(), value})
	}
	return rows
}
