package audio

import (
	"errors"

	resampler "github.com/godeps/go-audio-soxr"
)

type soxrKey struct {
	inRate  int
	outRate int
}

var soxrPools keyedPool[soxrKey]

// Resampler converts a continuous mono stream between sample rates and
// hands the result out in fixed-size frames.
type Resampler struct {
	key soxrKey
	r   *resampler.SimpleResamplerFloat32
	out []float32
}

// NewResampler returns a pooled soxr resampler; Close returns it.
func NewResampler(inRate, outRate int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, errors.New("audio: invalid sample rate")
	}
	key := soxrKey{inRate: inRate, outRate: outRate}
	if v := soxrPools.pool(key).Get(); v != nil {
		if r, ok := v.(*resampler.SimpleResamplerFloat32); ok && r != nil {
			return &Resampler{key: key, r: r}, nil
		}
	}
	r, err := resampler.NewEngineFloat32(float64(inRate), float64(outRate), resampler.QualityHigh)
	if err != nil {
		return nil, err
	}
	return &Resampler{key: key, r: r}, nil
}

// Write resamples pcm and buffers the output.
func (s *Resampler) Write(pcm []int16) error {
	if s == nil || s.r == nil {
		return errors.New("audio: resampler closed")
	}
	if len(pcm) == 0 {
		return nil
	}
	tmp := Int16ToFloat32Into(acquireFloat32(len(pcm)), pcm)
	out, err := s.r.Process(tmp)
	releaseFloat32(tmp)
	if err != nil {
		return err
	}
	s.out = append(s.out, out...)
	return nil
}

// Flush drains samples held back by the filter.
func (s *Resampler) Flush() error {
	if s == nil || s.r == nil {
		return errors.New("audio: resampler closed")
	}
	out, err := s.r.Flush()
	if err != nil {
		return err
	}
	s.out = append(s.out, out...)
	return nil
}

// Buffered returns the number of resampled samples not yet handed out.
func (s *Resampler) Buffered() int {
	if s == nil {
		return 0
	}
	return len(s.out)
}

// Frame pops frameSize samples when enough are buffered. Release the frame
// with ReleaseInt16.
func (s *Resampler) Frame(frameSize int) ([]int16, bool) {
	if s == nil || frameSize <= 0 || len(s.out) < frameSize {
		return nil, false
	}
	frame := Float32ToInt16Into(AcquireInt16(frameSize), s.out[:frameSize])
	s.out = s.out[frameSize:]
	return frame, true
}

// Remainder pops whatever is left, zero padded to frameSize.
func (s *Resampler) Remainder(frameSize int) []int16 {
	if s == nil || frameSize <= 0 || len(s.out) == 0 {
		return nil
	}
	n := min(len(s.out), frameSize)
	frame := AcquireInt16(frameSize)
	Float32ToInt16Into(frame[:n], s.out[:n])
	clear(frame[n:])
	s.out = nil
	return frame
}

// Close returns the underlying engine to its pool.
func (s *Resampler) Close() {
	if s == nil || s.r == nil {
		return
	}
	s.r.Reset()
	soxrPools.pool(s.key).Put(s.r)
	s.r = nil
	s.out = nil
}
