package audio

import "sync"

// slicePool recycles sample buffers of one element type.
type slicePool[T any] struct {
	p sync.Pool
}

func (sp *slicePool[T]) get(size int) []T {
	if size <= 0 {
		return nil
	}
	if v := sp.p.Get(); v != nil {
		if buf := v.([]T); cap(buf) >= size {
			return buf[:size]
		}
	}
	return make([]T, size)
}

func (sp *slicePool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	sp.p.Put(buf[:0])
}

var (
	int16Pool   slicePool[int16]
	float32Pool slicePool[float32]
)

// AcquireInt16 returns an int16 slice with length size.
func AcquireInt16(size int) []int16 { return int16Pool.get(size) }

// ReleaseInt16 puts an int16 slice back to the pool.
func ReleaseInt16(buf []int16) { int16Pool.put(buf) }

func acquireFloat32(size int) []float32 { return float32Pool.get(size) }

func releaseFloat32(buf []float32) { float32Pool.put(buf) }

// keyedPool hands out pooled values per configuration key.
type keyedPool[K comparable] struct {
	pools sync.Map
}

func (kp *keyedPool[K]) pool(key K) *sync.Pool {
	if pool, ok := kp.pools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	actual, _ := kp.pools.LoadOrStore(key, &sync.Pool{})
	return actual.(*sync.Pool)
}
