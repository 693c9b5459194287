// Package opusx wraps the pure Go Opus encoder.
package opusx

import "github.com/godeps/opus"

// Backend names the Opus implementation in use.
func Backend() string {
	return "pure-godeps/opus"
}

type Application = opus.Application

type Bandwidth = opus.Bandwidth

const (
	AppVoIP  = opus.AppVoIP
	AppAudio = opus.AppAudio
)

var (
	Narrowband    = opus.Narrowband
	Wideband      = opus.Wideband
	SuperWideband = opus.SuperWideband
	Fullband      = opus.Fullband
)

// Encoder is a single-stream Opus encoder.
type Encoder struct {
	enc *opus.Encoder
}

func NewEncoder(sampleRate, channels int, app Application) (*Encoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, app)
	if err != nil {
		return nil, err
	}
	return &Encoder{enc: enc}, nil
}

func (e *Encoder) Encode(pcm []int16, data []byte) (int, error) {
	return e.enc.Encode(pcm, data)
}

func (e *Encoder) Reset() error {
	return e.enc.Reset()
}

func (e *Encoder) SetDTX(dtx bool) error {
	return e.enc.SetDTX(dtx)
}

func (e *Encoder) SetBitrate(bitrate int) error {
	return e.enc.SetBitrate(bitrate)
}

func (e *Encoder) SetComplexity(complexity int) error {
	return e.enc.SetComplexity(complexity)
}

func (e *Encoder) SetMaxBandwidth(maxBw Bandwidth) error {
	return e.enc.SetMaxBandwidth(maxBw)
}

func (e *Encoder) SetVBR(vbr bool) error {
	return e.enc.SetVBR(vbr)
}
