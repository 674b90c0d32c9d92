package bucket

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func BenchmarkAllowN(b *testing.B) {
	store := New()
	ctx := context.Background()

	for b.Loop() {
		_, _ = store.AllowN(ctx, "bench-key", 1, 1000, time.Minute)
	}
}

func BenchmarkAllowN_Parallel(b *testing.B) {
	store := New()
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = store.AllowN(ctx, "bench-key", 1, 1000, time.Minute)
		}
	})
}

// many distinct users each uploading once
func BenchmarkAllowN_HighCardinality(b *testing.B) {
	store := New()
	ctx := context.Background()

	for i := 0; b.Loop(); i++ {
		_, _ = store.AllowN(ctx, fmt.Sprintf("ocr_upload:user-%d", i), 1, 10, time.Hour)
	}
}
