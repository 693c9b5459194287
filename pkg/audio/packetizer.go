// Package audio converts synthesized speech into Opus frames for playback
// on the client.
package audio

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultOutputRate = 24000
	DefaultFrameMs    = 20
)

// Packetizer resamples PCM16 clips to OutputRate and encodes them as Opus
// frames of FrameMs each.
type Packetizer struct {
	OutputRate int
	FrameMs    int
	Options    EncoderOptions
	Logger     *zap.Logger
}

// FrameDuration returns the playback length of one frame.
func (p Packetizer) FrameDuration() time.Duration {
	return time.Duration(p.frameMs()) * time.Millisecond
}

func (p Packetizer) outputRate() int {
	if p.OutputRate > 0 {
		return p.OutputRate
	}
	return DefaultOutputRate
}

func (p Packetizer) frameMs() int {
	if p.FrameMs > 0 {
		return p.FrameMs
	}
	return DefaultFrameMs
}

// Packetize encodes a little-endian PCM16 mono clip recorded at inRate.
func (p Packetizer) Packetize(pcm []byte, inRate int) ([][]byte, error) {
	if inRate <= 0 {
		return nil, errors.New("audio: invalid input sample rate")
	}
	samples := PCM16ToInt16Into(nil, pcm)
	if len(samples) == 0 {
		return nil, nil
	}

	enc, err := AcquireEncoder(p.outputRate(), p.frameMs(), p.Options)
	if err != nil {
		return nil, err
	}
	defer ReleaseEncoder(enc)
	frameSize := enc.FrameSize()

	var frames [][]byte
	emit := func(frame []int16) error {
		packet, err := enc.Encode(frame)
		if err != nil {
			return err
		}
		if len(packet) > 0 {
			frames = append(frames, packet)
		}
		return nil
	}

	if inRate == p.outputRate() {
		for start := 0; start < len(samples); start += frameSize {
			if err := emit(samples[start:min(start+frameSize, len(samples))]); err != nil {
				return nil, err
			}
		}
		return frames, nil
	}

	rs, err := NewResampler(inRate, p.outputRate())
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	if err := rs.Write(samples); err != nil {
		return nil, err
	}
	if err := rs.Flush(); err != nil {
		return nil, err
	}
	for {
		frame, ok := rs.Frame(frameSize)
		if !ok {
			break
		}
		err := emit(frame)
		ReleaseInt16(frame)
		if err != nil {
			return nil, err
		}
	}
	if rest := rs.Remainder(frameSize); rest != nil {
		err := emit(rest)
		ReleaseInt16(rest)
		if err != nil {
			return nil, err
		}
	}
	if p.Logger != nil {
		p.Logger.Debug("clip packetized",
			zap.Int("in_rate", inRate),
			zap.Int("out_rate", p.outputRate()),
			zap.Int("frames", len(frames)),
		)
	}
	return frames, nil
}
