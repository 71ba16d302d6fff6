package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/core/checksum"
	"firestige.xyz/csumlab/internal/log"
)

var checksumCmd = &cobra.Command{
	Use:   "checksum [BYTES...]",
	Short: "Compute the checksums of a packet",
	Long: `Compute the IPv4, UDP and TCP checksums of a packet given as a byte string.

Bytes are hex pairs, "__" marks an unknown byte and whitespace is ignored.
Stored checksum fields are ignored. A header that contains unknown bytes is
reported as N/A.

Examples:
  csumlab checksum -t ipv4_udp "00 00 00 00 00 00 00 00 00 00 00 00 08 00 45 00 ..."
  csumlab checksum -t ipv6_tcp -f packet.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		opts := checksumOpts.resolve(cfg)
		text, err := opts.text(args)
		if err != nil {
			return err
		}
		return runChecksum(cmd.OutOrStdout(), opts, text, cfg.Output.Format)
	},
}

var checksumOpts packetOptions

func init() {
	checksumOpts.addFlags(checksumCmd)
	checksumOpts.addFileFlag(checksumCmd)
}

type checksumDoc struct {
	Combination string            `yaml:"combination"`
	Length      int               `yaml:"length"`
	Checksums   map[string]string `yaml:"checksums"`
	Filled      string            `yaml:"filled"`
}

func runChecksum(w io.Writer, opts packetOptions, text string, format string) error {
	buf, err := opts.build(text)
	if err != nil {
		return err
	}
	results, err := checksum.Standalone(buf)
	if err != nil {
		return err
	}
	filled, err := checksum.Fill(buf)
	if err != nil {
		return err
	}
	log.GetLogger().WithField("combination", opts.combination).Debugf("computed %d checksums", len(results))

	rows := checksumRows(buf, results)
	if isYAML(format) {
		doc := checksumDoc{
			Combination: opts.combination,
			Length:      buf.Len(),
			Checksums:   make(map[string]string, len(rows)),
			Filled:      builder.FormatPlaceholder(filled.Data),
		}
		for _, r := range rows {
			doc.Checksums[r[0]] = r[1]
		}
		return renderYAML(w, doc)
	}

	renderTable(w, []string{"Protocol", "Checksum"}, rows)
	fmt.Fprintf(w, "Filled: %s\n", builder.FormatPlaceholder(filled.Data))
	return nil
}
