//go:build bench
// +build bench

package codec

import (
	"testing"
)

func BenchmarkCodec_Encode(b *testing.B) {
	f := newFixture(b)

	benchmarks := []struct {
		name  string
		value func() map[string]any
		fixed bool
	}{
		{"fixed", fixedValue, true},
		{"mixed", mixedValue, false},
	}
	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			group := f.mixed
			if bm.fixed {
				group = f.fixed
			}
			value := bm.value()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := f.codec.Encode(group, value); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkData_ItemAccess(b *testing.B) {
	f := newFixture(b)
	buf, err := f.codec.Encode(f.mixed, mixedValue())
	if err != nil {
		b.Fatal(err)
	}

	b.Run("fixed offset", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			rec, _ := f.codec.CreateUnmodifiableData(f.mixed, buf)
			if _, err := rec.Item("name"); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("measured offset", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			rec, _ := f.codec.CreateUnmodifiableData(f.mixed, buf)
			d, err := rec.Item("dur")
			if err != nil {
				b.Fatal(err)
			}
			if _, err := d.Millis(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkCodec_CompileCached(b *testing.B) {
	f := newFixture(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.codec.Compile(f.mixed); err != nil {
			b.Fatal(err)
		}
	}
}
