package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/core/delta"
)

var deltaCmd = &cobra.Command{
	Use:   "delta",
	Short: "Compute the checksum delta between two packets",
	Long: `Compute, per checksum, the difference between a modified and an original packet,
and list the byte ranges that can be compared region by region.

Unknown bytes count as zero for the checksum delta. A byte that is known in the
original but unknown in the modified packet makes the range comparison empty.

Examples:
  csumlab delta -t ipv4_udp --original "..." --modified "..."`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := currentConfig()
		return runDelta(cmd.OutOrStdout(), deltaOpts.resolve(cfg), deltaOriginal, deltaModified, cfg.Output.Format)
	},
}

var (
	deltaOpts     packetOptions
	deltaOriginal string
	deltaModified string
)

func init() {
	deltaOpts.addFlags(deltaCmd)
	deltaCmd.Flags().StringVar(&deltaOriginal, "original", "", "original byte string (required)")
	deltaCmd.Flags().StringVar(&deltaModified, "modified", "", "modified byte string (required)")
	deltaCmd.MarkFlagRequired("original")
	deltaCmd.MarkFlagRequired("modified")
}

type sectionDoc struct {
	Region   string `yaml:"region"`
	Start    int    `yaml:"start"`
	End      int    `yaml:"end"`
	Original string `yaml:"original"`
	Modified string `yaml:"modified"`
}

type deltaDoc struct {
	Checksums map[string]string `yaml:"checksums"`
	Chunks    []sectionDoc      `yaml:"chunks"`
}

func runDelta(w io.Writer, opts packetOptions, original, modified string, format string) error {
	// Both sides share the layout inferred from the original.
	opts, err := opts.inferPayload(original)
	if err != nil {
		return fmt.Errorf("original: %w", err)
	}

	before, err := opts.build(original)
	if err != nil {
		return fmt.Errorf("original: %w", err)
	}
	after, err := opts.build(modified)
	if err != nil {
		return fmt.Errorf("modified: %w", err)
	}

	sums, err := delta.Checksums(before, after)
	if err != nil {
		return err
	}
	chunks, err := delta.Chunks(before, after)
	if err != nil {
		return err
	}

	doc := deltaDoc{Checksums: make(map[string]string, len(sums)), Chunks: make([]sectionDoc, 0, len(chunks))}
	for _, s := range sums {
		doc.Checksums[s.Protocol] = hex16(s.Checksum)
	}
	for _, c := range chunks {
		doc.Chunks = append(doc.Chunks, sectionDoc{
			Region:   c.Kind.String(),
			Start:    c.Start,
			End:      c.End,
			Original: builder.FormatPlaceholder(c.Original),
			Modified: builder.FormatPlaceholder(c.Modified),
		})
	}

	if isYAML(format) {
		return renderYAML(w, doc)
	}

	sumRows := make([][]string, 0, len(sums))
	for _, s := range sums {
		sumRows = append(sumRows, []string{s.Protocol, hex16(s.Checksum)})
	}
	renderTable(w, []string{"Protocol", "Delta"}, sumRows)

	if len(doc.Chunks) == 0 {
		fmt.Fprintln(w, "No comparable chunks")
		return nil
	}
	chunkRows := make([][]string, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		chunkRows = append(chunkRows, []string{c.Region, strconv.Itoa(c.Start), strconv.Itoa(c.End), c.Original, c.Modified})
	}
	renderTable(w, []string{"Region", "Start", "End", "Original", "Modified"}, chunkRows)
	return nil
}
