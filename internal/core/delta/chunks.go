package delta

import (
	"fmt"

	"firestige.xyz/csumlab/internal/core"
)

// scanState is the state of the per-region chunk scanner.
type scanState uint8

const (
	noChunk scanState = iota
	openChunk
	aborted
)

// scanner walks one header region and cuts it into delta sections.
type scanner struct {
	original, modified *core.PacketBuffer
	region             core.HeaderRegion

	state    scanState
	start    int
	sections []core.DeltaSection
}

func (s *scanner) emit(end int) {
	s.sections = append(s.sections, core.DeltaSection{
		Kind:     s.region.Kind,
		Start:    s.start,
		End:      end,
		Original: copyRange(s.original.Data, s.start, end),
		Modified: copyRange(s.modified.Data, s.start, end),
	})
	s.state = noChunk
}

// step feeds byte index i to the scanner.
func (s *scanner) step(i int) {
	orig, mod := s.original.Data[i], s.modified.Data[i]

	switch {
	case orig.IsKnown() && !mod.IsKnown():
		// A field was emptied again: the pair is not comparable.
		s.state = aborted
		return
	case !orig.IsKnown() && !mod.IsKnown():
		if s.state == openChunk {
			s.emit(i - 1)
		}
	default:
		if s.state == noChunk {
			s.state = openChunk
			s.start = i
		}
	}

	if i == s.region.End && s.state == openChunk {
		s.emit(i)
	}
}

// scanRegion returns the sections of one region; ok is false when the scan
// aborted.
func scanRegion(original, modified *core.PacketBuffer, r core.HeaderRegion) (sections []core.DeltaSection, ok bool) {
	s := &scanner{original: original, modified: modified, region: r}
	for i := r.Start; i <= r.End; i++ {
		s.step(i)
		if s.state == aborted {
			return nil, false
		}
	}
	return s.sections, true
}

// Chunks returns the maximal byte ranges, scoped to a single header region,
// where the modified packet carries known bytes. If any byte known in the
// original is unknown in the modified packet the result is empty.
func Chunks(original, modified *core.PacketBuffer) ([]core.DeltaSection, error) {
	if original.Len() != modified.Len() {
		return nil, fmt.Errorf("%w: %d != %d bytes", core.ErrLengthMismatch, original.Len(), modified.Len())
	}
	if len(original.Regions) != len(modified.Regions) {
		return nil, fmt.Errorf("%w: %d != %d regions", core.ErrLengthMismatch, len(original.Regions), len(modified.Regions))
	}
	for i := range original.Regions {
		if !original.Regions[i].SameShape(modified.Regions[i]) {
			return nil, fmt.Errorf("%w: region %d differs", core.ErrLengthMismatch, i)
		}
	}

	sections := []core.DeltaSection{}
	for _, r := range original.Regions {
		found, ok := scanRegion(original, modified, r)
		if !ok {
			return []core.DeltaSection{}, nil
		}
		sections = append(sections, found...)
	}
	return sections, nil
}

func copyRange(data []core.Byte, start, end int) []core.Byte {
	out := make([]core.Byte, end-start+1)
	copy(out, data[start:end+1])
	return out
}
