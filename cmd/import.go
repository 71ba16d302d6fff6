package cmd

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/core/checksum"
	"firestige.xyz/csumlab/internal/source/file"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Read the first frame of a pcap file",
	Long: `Read the first Ethernet frame of a pcap file, print it as a byte string and
compare its stored checksums with the computed ones.

Only IPv4 or IPv6 frames carrying UDP or TCP without options are supported.

Examples:
  csumlab import capture.pcap`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.OutOrStdout(), args[0], currentConfig().Output.Format)
	},
}

type importRow struct {
	Protocol string `yaml:"protocol"`
	Stored   string `yaml:"stored"`
	Computed string `yaml:"computed"`
	Valid    bool   `yaml:"valid"`
}

type importDoc struct {
	Combination string      `yaml:"combination"`
	Length      int         `yaml:"length"`
	Bytes       string      `yaml:"bytes"`
	Checksums   []importRow `yaml:"checksums"`
}

func runImport(w io.Writer, path string, format string) error {
	buf, c, err := file.ReadFirstFrame(path)
	if err != nil {
		return err
	}
	results, err := checksum.Standalone(buf)
	if err != nil {
		return err
	}
	byProtocol := lo.KeyBy(results, func(r core.ChecksumResult) string { return r.Protocol })

	doc := importDoc{Combination: string(c), Length: buf.Len(), Bytes: builder.FormatHex(buf.Data)}
	for _, r := range buf.Regions {
		stored, ok := checksum.Stored(buf, r)
		if !ok {
			continue
		}
		row := importRow{Protocol: r.Kind.String(), Stored: hex16(stored), Computed: notAvailable}
		if res, ok := byProtocol[row.Protocol]; ok {
			row.Computed = hex16(res.Checksum)
			row.Valid = res.Checksum == stored
		}
		doc.Checksums = append(doc.Checksums, row)
	}

	if isYAML(format) {
		return renderYAML(w, doc)
	}

	fmt.Fprintf(w, "Combination: %s (%d bytes)\n", doc.Combination, doc.Length)
	fmt.Fprintf(w, "Bytes: %s\n", doc.Bytes)
	rows := lo.Map(doc.Checksums, func(r importRow, _ int) []string {
		valid := "no"
		if r.Valid {
			valid = "yes"
		}
		return []string{r.Protocol, r.Stored, r.Computed, valid}
	})
	renderTable(w, []string{"Protocol", "Stored", "Computed", "Valid"}, rows)
	return nil
}
