package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/core/checksum"
	"firestige.xyz/csumlab/internal/source/file"
)

var exportCmd = &cobra.Command{
	Use:   "export [BYTES...]",
	Short: "Write a packet with filled checksums to a pcap file",
	Long: `Build a packet from a byte string, write every computable checksum into it
and save it as a single-frame Ethernet pcap file.

Examples:
  csumlab export -t ipv4_udp --out packet.pcap "00 00 ..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		opts := exportOpts.resolve(cfg)
		text, err := opts.text(args)
		if err != nil {
			return err
		}
		return runExport(cmd.OutOrStdout(), opts, text, exportPath)
	},
}

var (
	exportOpts packetOptions
	exportPath string
)

func init() {
	exportOpts.addFlags(exportCmd)
	exportOpts.addFileFlag(exportCmd)
	exportCmd.Flags().StringVar(&exportPath, "out", "", "pcap file to write (required)")
	exportCmd.MarkFlagRequired("out")
}

func runExport(w io.Writer, opts packetOptions, text string, path string) error {
	buf, err := opts.build(text)
	if err != nil {
		return err
	}
	filled, err := checksum.Fill(buf)
	if err != nil {
		return err
	}
	if err := file.WriteFrame(path, filled); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote %d bytes to %s\n", filled.Len(), path)
	return nil
}
