package strarena

import (
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func benchValues(n, length int) []string {
	values := make([]string, n)
	for i := range values {
		s := fmt.Sprintf("%0*d", length, i)
		values[i] = s[:length]
	}
	return values
}

func reportGC(b *testing.B, before runtime.MemStats) {
	b.StopTimer()
	runtime.GC()
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	b.ReportMetric(float64(after.NumGC-before.NumGC), "gcs")
	b.ReportMetric(float64(after.PauseTotalNs-before.PauseTotalNs)/1e6, "gc_pause_ms")
}

// BenchmarkPool_Get copies strings into a reused pool, resetting between rounds.
func BenchmarkPool_Get(b *testing.B) {
	for _, length := range []int{8, 64, 512} {
		b.Run(fmt.Sprintf("len=%d", length), func(b *testing.B) {
			values := benchValues(1000, length)
			p, err := New(len(values), length)
			if err != nil {
				b.Fatal(err)
			}
			defer p.Free()

			runtime.GC()
			var before runtime.MemStats
			runtime.ReadMemStats(&before)

			b.ResetTimer()
			b.ReportAllocs()
			for b.Loop() {
				for _, v := range values {
					if _, err := p.Get(v); err != nil {
						b.Fatal(err)
					}
				}
				_ = p.Reset()
			}
			reportGC(b, before)
		})
	}
}

// BenchmarkHeap_Clone is the same workload with strings.Clone onto the GC heap.
func BenchmarkHeap_Clone(b *testing.B) {
	for _, length := range []int{8, 64, 512} {
		b.Run(fmt.Sprintf("len=%d", length), func(b *testing.B) {
			values := benchValues(1000, length)
			kept := make([]string, len(values))

			runtime.GC()
			var before runtime.MemStats
			runtime.ReadMemStats(&before)

			b.ResetTimer()
			b.ReportAllocs()
			for b.Loop() {
				for i, v := range values {
					kept[i] = strings.Clone(v)
				}
			}
			runtime.KeepAlive(kept)
			reportGC(b, before)
		})
	}
}

func BenchmarkPooledString_Value(b *testing.B) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF16} {
		b.Run(enc.String(), func(b *testing.B) {
			p, err := NewWithConfig(Config{EstimatedCount: 1, EstimatedLength: 64, Encoding: enc})
			if err != nil {
				b.Fatal(err)
			}
			defer p.Free()

			h, err := p.Get(strings.Repeat("v", 64))
			if err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			for b.Loop() {
				if _, err := h.Value(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
