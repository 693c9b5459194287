package audio

import "math"

func float32ToInt16(sample float32) int16 {
	if sample > 1.0 {
		return math.MaxInt16
	}
	if sample < -1.0 {
		return math.MinInt16
	}
	return int16(sample * math.MaxInt16)
}

// PCM16ToInt16Into decodes little-endian 16-bit PCM into dst. A trailing odd
// byte is dropped.
func PCM16ToInt16Into(dst []int16, data []byte) []int16 {
	n := len(data) / 2
	if cap(dst) < n {
		dst = make([]int16, n)
	} else {
		dst = dst[:n]
	}
	for i := range n {
		dst[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return dst
}

// Int16ToPCM16Into encodes samples as little-endian 16-bit PCM.
func Int16ToPCM16Into(dst []byte, samples []int16) []byte {
	needed := len(samples) * 2
	if cap(dst) < needed {
		dst = make([]byte, needed)
	} else {
		dst = dst[:needed]
	}
	for i, sample := range samples {
		dst[i*2] = byte(sample)
		dst[i*2+1] = byte(sample >> 8)
	}
	return dst
}

// Float32ToInt16Into fills dst with clamped samples and returns it.
func Float32ToInt16Into(dst []int16, samples []float32) []int16 {
	if cap(dst) < len(samples) {
		dst = make([]int16, len(samples))
	} else {
		dst = dst[:len(samples)]
	}
	for i, sample := range samples {
		dst[i] = float32ToInt16(sample)
	}
	return dst
}

// Int16ToFloat32Into fills dst with samples scaled to [-1, 1] and returns it.
func Int16ToFloat32Into(dst []float32, samples []int16) []float32 {
	if cap(dst) < len(samples) {
		dst = make([]float32, len(samples))
	} else {
		dst = dst[:len(samples)]
	}
	for i, sample := range samples {
		dst[i] = float32(sample) / float32(math.MaxInt16)
	}
	return dst
}
