package audio

import (
	"fmt"
	"strings"
	"sync"

	"github.com/veenjenga/Hands-and-Hope-sub001/pkg/audio/opusx"
)

// EncoderOptions tunes the Opus encoder. Zero values keep libopus defaults.
type EncoderOptions struct {
	Bitrate      int    `mapstructure:"bitrate" yaml:"bitrate"`
	Complexity   int    `mapstructure:"complexity" yaml:"complexity"`
	VBR          *bool  `mapstructure:"vbr" yaml:"vbr,omitempty"`
	DTX          *bool  `mapstructure:"dtx" yaml:"dtx,omitempty"`
	MaxBandwidth string `mapstructure:"max_bandwidth" yaml:"max_bandwidth"`
}

func (o EncoderOptions) apply(enc *opusx.Encoder) error {
	if o.Bitrate > 0 {
		if err := enc.SetBitrate(o.Bitrate); err != nil {
			return fmt.Errorf("bitrate: %w", err)
		}
	}
	if o.Complexity > 0 {
		if err := enc.SetComplexity(o.Complexity); err != nil {
			return fmt.Errorf("complexity: %w", err)
		}
	}
	if o.VBR != nil {
		if err := enc.SetVBR(*o.VBR); err != nil {
			return fmt.Errorf("vbr: %w", err)
		}
	}
	if o.DTX != nil {
		if err := enc.SetDTX(*o.DTX); err != nil {
			return fmt.Errorf("dtx: %w", err)
		}
	}
	if bw, ok := parseBandwidth(o.MaxBandwidth); ok {
		if err := enc.SetMaxBandwidth(bw); err != nil {
			return fmt.Errorf("max bandwidth: %w", err)
		}
	}
	return nil
}

func parseBandwidth(v string) (opusx.Bandwidth, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "narrowband", "nb":
		return opusx.Narrowband, true
	case "wideband", "wb":
		return opusx.Wideband, true
	case "superwideband", "swb":
		return opusx.SuperWideband, true
	case "fullband", "fb":
		return opusx.Fullband, true
	}
	var auto opusx.Bandwidth
	return auto, false
}

type encoderKey struct {
	sampleRate int
	frameMs    int
}

var encoderPools keyedPool[encoderKey]

// Encoder encodes fixed-duration mono PCM16 frames to Opus packets.
type Encoder struct {
	mu        sync.Mutex
	key       encoderKey
	enc       *opusx.Encoder
	frameSize int
	buf       []byte
}

// AcquireEncoder returns a pooled mono encoder configured with opts.
func AcquireEncoder(sampleRate, frameMs int, opts EncoderOptions) (*Encoder, error) {
	key := encoderKey{sampleRate: sampleRate, frameMs: frameMs}
	var e *Encoder
	if v := encoderPools.pool(key).Get(); v != nil {
		e = v.(*Encoder)
	} else {
		enc, err := opusx.NewEncoder(sampleRate, 1, opusx.AppVoIP)
		if err != nil {
			return nil, fmt.Errorf("create opus encoder: %w", err)
		}
		e = &Encoder{
			key:       key,
			enc:       enc,
			frameSize: sampleRate * frameMs / 1000,
			buf:       make([]byte, 4000),
		}
	}
	if err := opts.apply(e.enc); err != nil {
		return nil, fmt.Errorf("configure opus encoder: %w", err)
	}
	return e, nil
}

// ReleaseEncoder resets e and returns it to its pool.
func ReleaseEncoder(e *Encoder) {
	if e == nil {
		return
	}
	e.mu.Lock()
	_ = e.enc.Reset()
	e.mu.Unlock()
	encoderPools.pool(e.key).Put(e)
}

// FrameSize is the number of samples per frame.
func (e *Encoder) FrameSize() int {
	return e.frameSize
}

// Encode encodes one frame. Short frames are zero padded and long ones are
// truncated.
func (e *Encoder) Encode(frame []int16) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(frame) != e.frameSize {
		padded := AcquireInt16(e.frameSize)
		n := copy(padded, frame)
		clear(padded[n:])
		defer ReleaseInt16(padded)
		frame = padded
	}
	n, err := e.enc.Encode(frame, e.buf)
	if err != nil {
		return nil, fmt.Errorf("opus encode: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return append([]byte(nil), e.buf[:n]...), nil
}
