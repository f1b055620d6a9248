package provider

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/storyboard/storyboard/pkg/types"
)

// Placeholder is a local provider that synthesizes deterministic stand-in
// artifacts without any network access: a solid-color PNG for images and
// silent WAV audio sized to the prompt. Real vendor clients implement the
// same Provider interface and replace it at wiring time.
type Placeholder struct{}

// NewPlaceholder creates a placeholder provider
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Generate implements the provider contract
func (p *Placeholder) Generate(ctx context.Context, req types.Request) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch req.Kind {
	case types.AssetTypeImage:
		return &Artifact{Data: placeholderPNG(), Format: "png"}, nil
	case types.AssetTypeAudio:
		return &Artifact{Data: silentWAV(promptDuration(req.Parts)), Format: "wav"}, nil
	}
	return nil, Fatal(fmt.Errorf("unsupported asset kind %q", req.Kind))
}

// promptDuration estimates speech length from the prompt text, roughly one
// second per fifteen characters with a one second floor.
func promptDuration(parts []types.ResolvedPart) float64 {
	var b strings.Builder
	for _, p := range parts {
		if p.Kind == types.PartText {
			b.WriteString(p.Value)
		}
	}
	d := float64(b.Len()) / 15.0
	if d < 1 {
		d = 1
	}
	return d
}

// placeholderPNG returns a minimal valid 1x1 gray PNG
func placeholderPNG() []byte {
	return []byte{
		0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R',
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x00, 0x00, 0x00, 0x00, 0x3a, 0x7e, 0x9b,
		0x55,
		0x00, 0x00, 0x00, 0x0a, 'I', 'D', 'A', 'T',
		0x78, 0x9c, 0x63, 0x68, 0x00, 0x00, 0x00, 0x82,
		0x00, 0x81,
		0xe5, 0x27, 0x97, 0x12,
		0x00, 0x00, 0x00, 0x00, 'I', 'E', 'N', 'D',
		0xae, 0x42, 0x60, 0x82,
	}
}

// silentWAV builds mono 16-bit 24kHz PCM silence of the given length
func silentWAV(seconds float64) []byte {
	const (
		sampleRate = 24000
		channels   = 1
		width      = 2
	)
	samples := int(seconds * sampleRate)
	dataSize := samples * channels * width

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*width))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*width))
	binary.Write(&buf, binary.LittleEndian, uint16(width*8))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
