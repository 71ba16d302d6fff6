// Package exercise loads checksum exercises and grades answers against the
// engine's results.
package exercise

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/core/builder"
	"firestige.xyz/csumlab/internal/core/checksum"
	"firestige.xyz/csumlab/internal/core/delta"
)

// Exercise describes one packet, or one original/modified pair in delta
// mode, and the checksums a student claims for it keyed by protocol.
type Exercise struct {
	Name        string            `yaml:"name"`
	Combination string            `yaml:"combination"`
	PayloadSize int               `yaml:"payload_size"`
	Delta       bool              `yaml:"delta"`
	Original    string            `yaml:"original"`
	Modified    string            `yaml:"modified"`
	Answers     map[string]string `yaml:"answers"`
}

// Result grades one checksum.
type Result struct {
	Protocol string `yaml:"protocol"`
	Expected string `yaml:"expected"`
	Given    string `yaml:"given"`
	Correct  bool   `yaml:"correct"`
}

func Load(path string) (*Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exercise %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Exercise, error) {
	var ex Exercise
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("failed to parse exercise: %w", err)
	}
	return &ex, nil
}

// Build returns the exercise buffers. Both sides are built independently
// from their byte strings. A delta exercise without a modified packet
// compares the original with itself.
func (e *Exercise) Build() (*builder.Pair, error) {
	c, err := core.ParseCombination(e.Combination)
	if err != nil {
		return nil, err
	}

	original, err := builder.FromByteString(c, e.PayloadSize, e.Original)
	if err != nil {
		return nil, fmt.Errorf("original: %w", err)
	}

	var modified *core.PacketBuffer
	if e.Delta {
		text := e.Modified
		if strings.TrimSpace(text) == "" {
			text = e.Original
		}
		modified, err = builder.FromByteString(c, e.PayloadSize, text)
		if err != nil {
			return nil, fmt.Errorf("modified: %w", err)
		}
	} else {
		modified, err = builder.BuildEmpty(c, e.PayloadSize, true)
		if err != nil {
			return nil, err
		}
	}

	return &builder.Pair{
		Combination: c,
		PayloadLen:  e.PayloadSize,
		Delta:       e.Delta,
		Original:    original,
		Modified:    modified,
	}, nil
}

// Expected returns the standalone checksums of the original, or the delta
// checksums in delta mode.
func (e *Exercise) Expected() ([]core.ChecksumResult, error) {
	pair, err := e.Build()
	if err != nil {
		return nil, err
	}
	if e.Delta {
		return delta.Checksums(pair.Original, pair.Modified)
	}
	return checksum.Standalone(pair.Original)
}

// Grade compares answers with the expected checksums. Protocol keys match
// case-insensitively and values accept an optional 0x prefix.
func (e *Exercise) Grade(answers map[string]string) ([]Result, error) {
	expected, err := e.Expected()
	if err != nil {
		return nil, err
	}

	return lo.Map(expected, func(r core.ChecksumResult, _ int) Result {
		given, _ := lookup(answers, r.Protocol)
		v, ok := parseAnswer(given)
		return Result{
			Protocol: r.Protocol,
			Expected: fmt.Sprintf("0x%04X", r.Checksum),
			Given:    given,
			Correct:  ok && v == r.Checksum,
		}
	}), nil
}

// Score counts correct results.
func Score(results []Result) (int, int) {
	return lo.CountBy(results, func(r Result) bool { return r.Correct }), len(results)
}

func lookup(answers map[string]string, protocol string) (string, bool) {
	key, ok := lo.FindKeyBy(answers, func(k string, _ string) bool {
		return strings.EqualFold(strings.TrimSpace(k), protocol)
	})
	if !ok {
		return "", false
	}
	return answers[key], true
}

func parseAnswer(s string) (uint16, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
