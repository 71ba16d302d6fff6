package cmd

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the header regions of a packet",
	Long: `Print the header regions of an empty packet for a combination and payload size.

Examples:
  csumlab layout -t ipv6_tcp -p 16
  csumlab layout -o yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		return runLayout(cmd.OutOrStdout(), layoutOpts.resolve(cfg), cfg.Output.Format)
	},
}

var layoutOpts packetOptions

func init() {
	layoutOpts.addFlags(layoutCmd)
}

type regionDoc struct {
	Region         string `yaml:"region"`
	Start          int    `yaml:"start"`
	End            int    `yaml:"end"`
	Length         int    `yaml:"length"`
	Color          string `yaml:"color"`
	ChecksumOffset *int   `yaml:"checksum_offset,omitempty"`
}

func runLayout(w io.Writer, opts packetOptions, format string) error {
	payload := opts.payload
	if payload < 0 {
		payload = 0
	}
	buf, err := builder.BuildEmpty(core.Combination(opts.combination), payload, false)
	if err != nil {
		return err
	}

	docs := make([]regionDoc, 0, len(buf.Regions))
	for _, r := range buf.Regions {
		doc := regionDoc{Region: r.Kind.String(), Start: r.Start, End: r.End, Length: r.Len(), Color: r.Color}
		if off, ok := core.ChecksumOffset(r.Kind); ok {
			abs := r.Start + off
			doc.ChecksumOffset = &abs
		}
		docs = append(docs, doc)
	}

	if isYAML(format) {
		return renderYAML(w, docs)
	}

	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		csum := "-"
		if d.ChecksumOffset != nil {
			csum = strconv.Itoa(*d.ChecksumOffset)
		}
		rows = append(rows, []string{d.Region, strconv.Itoa(d.Start), strconv.Itoa(d.End), strconv.Itoa(d.Length), d.Color, csum})
	}
	renderTable(w, []string{"Region", "Start", "End", "Length", "Color", "Checksum At"}, rows)
	return nil
}
