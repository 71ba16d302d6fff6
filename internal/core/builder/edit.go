package builder

import (
	"fmt"

	"firestige.xyz/csumlab/internal/core"
)

// SetByte writes b at idx. Disabled bytes refuse edits.
func SetByte(buf *core.PacketBuffer, idx int, b core.Byte) error {
	if idx < 0 || idx >= buf.Len() {
		return fmt.Errorf("%w: %d not in [0, %d)", core.ErrIndexOutOfRange, idx, buf.Len())
	}
	if buf.State(idx) == core.StateDisabled {
		return fmt.Errorf("%w: index %d", core.ErrFieldDisabled, idx)
	}
	buf.Data[idx] = b
	return nil
}

// Paste writes bytes starting at offset, skipping disabled indices and
// stopping at the end of the buffer. It returns the indices written.
func Paste(buf *core.PacketBuffer, offset int, bytes []core.Byte) ([]int, error) {
	if offset < 0 || offset >= buf.Len() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", core.ErrIndexOutOfRange, offset, buf.Len())
	}

	var written []int
	for i, b := range bytes {
		pos := offset + i
		if pos == buf.Len() {
			break
		}
		if buf.State(pos) == core.StateDisabled {
			continue
		}
		buf.Data[pos] = b
		written = append(written, pos)
	}
	return written, nil
}

// Clear resets every byte to unknown, keeping regions and states.
func Clear(buf *core.PacketBuffer) {
	for i := range buf.Data {
		buf.Data[i] = core.Unknown
	}
}

// Pair holds the original and modified side of a comparison. In delta mode
// the modified side only accepts edits where the original is known.
type Pair struct {
	Combination core.Combination
	PayloadLen  int
	Delta       bool

	Original *core.PacketBuffer
	Modified *core.PacketBuffer
}

// NewPair builds an editable original and a fully disabled modified buffer.
func NewPair(c core.Combination, payloadLen int, delta bool) (*Pair, error) {
	p := &Pair{Combination: c, PayloadLen: payloadLen, Delta: delta}
	if err := p.reset(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pair) reset() error {
	original, err := BuildEmpty(p.Combination, p.PayloadLen, false)
	if err != nil {
		return err
	}
	modified, err := BuildEmpty(p.Combination, p.PayloadLen, true)
	if err != nil {
		return err
	}
	p.Original, p.Modified = original, modified
	return nil
}

// SetOriginal edits the original side and mirrors the change in delta mode.
func (p *Pair) SetOriginal(idx int, b core.Byte) error {
	if err := SetByte(p.Original, idx, b); err != nil {
		return err
	}
	if p.Delta {
		p.mirror(idx, b)
	}
	return nil
}

// SetModified edits the modified side.
func (p *Pair) SetModified(idx int, b core.Byte) error {
	return SetByte(p.Modified, idx, b)
}

// PasteOriginal pastes onto the original side and mirrors the state of every
// written index. Modified bytes keep their values.
func (p *Pair) PasteOriginal(offset int, bytes []core.Byte) error {
	written, err := Paste(p.Original, offset, bytes)
	if err != nil {
		return err
	}
	if p.Delta {
		for _, pos := range written {
			p.mirrorState(pos, p.Original.Data[pos])
		}
	}
	return nil
}

// PasteModified pastes onto the modified side.
func (p *Pair) PasteModified(offset int, bytes []core.Byte) error {
	_, err := Paste(p.Modified, offset, bytes)
	return err
}

// ClearOriginal rebuilds both sides from scratch.
func (p *Pair) ClearOriginal() error {
	return p.reset()
}

// ClearModified resets the modified bytes, keeping its states.
func (p *Pair) ClearModified() {
	Clear(p.Modified)
}

// mirror unlocks the modified byte once the original is known and locks it
// again, dropping its value, when the original is cleared.
func (p *Pair) mirror(idx int, b core.Byte) {
	p.mirrorState(idx, b)
	if !b.IsKnown() {
		p.Modified.Data[idx] = core.Unknown
	}
}

func (p *Pair) mirrorState(idx int, b core.Byte) {
	if !b.IsKnown() {
		p.Modified.States[idx] = core.StateDisabled
		return
	}
	p.Modified.States[idx] = core.StateHighlighted
}
