package utils

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestTokenBucketLimiter_BasicFunctionality tests basic rate limiting
func TestTokenBucketLimiter_BasicFunctionality(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000)
	ctx := context.Background()

	// Bucket starts full, so the first second worth of bytes is immediate
	start := time.Now()
	if err := limiter.Wait(ctx, 500); err != nil {
		t.Fatalf("First wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, 500); err != nil {
		t.Fatalf("Second wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("Bucketed waits took too long: %v", elapsed)
	}

	// Bucket exhausted: 100 bytes at 1000 B/s needs about 100ms
	start = time.Now()
	if err := limiter.Wait(ctx, 100); err != nil {
		t.Fatalf("Third wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("Third wait was too fast: %v", elapsed)
	}
}

// TestTokenBucketLimiter_NoRateLimit tests behavior with no rate limit
func TestTokenBucketLimiter_NoRateLimit(t *testing.T) {
	limiter := NewTokenBucketLimiter(0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		start := time.Now()
		if err := limiter.Wait(ctx, 1000000); err != nil {
			t.Fatalf("Wait %d failed: %v", i, err)
		}
		if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
			t.Fatalf("Wait %d took too long: %v", i, elapsed)
		}
	}
}

// TestTokenBucketLimiter_ContextCancellation tests context cancellation
func TestTokenBucketLimiter_ContextCancellation(t *testing.T) {
	limiter := NewTokenBucketLimiter(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, 1000)
	elapsed := time.Since(start)

	if err != context.DeadlineExceeded {
		t.Fatalf("Expected context deadline exceeded, got: %v", err)
	}
	if elapsed > 150*time.Millisecond {
		t.Fatalf("Wait took too long after context cancellation: %v", elapsed)
	}
}

// TestTokenBucketLimiter_SetRate tests dynamic rate changes
func TestTokenBucketLimiter_SetRate(t *testing.T) {
	limiter := NewTokenBucketLimiter(1000)
	ctx := context.Background()

	if err := limiter.Wait(ctx, 1000); err != nil {
		t.Fatalf("Initial wait failed: %v", err)
	}

	limiter.SetRate(2000)
	if rate := limiter.(*TokenBucketLimiter).Rate(); rate != 2000 {
		t.Fatalf("Expected rate 2000, got %d", rate)
	}

	time.Sleep(100 * time.Millisecond)

	// About 200 bytes refilled at the new rate
	start := time.Now()
	if err := limiter.Wait(ctx, 150); err != nil {
		t.Fatalf("Wait failed after rate increase: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("Wait took too long after rate increase: %v", elapsed)
	}

	limiter.SetRate(0)
	if err := limiter.Wait(ctx, 1<<30); err != nil {
		t.Fatalf("Disabled limiter should not block: %v", err)
	}
}

func TestTokenBucketLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewTokenBucketLimiter(1 << 20)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := limiter.Wait(ctx, 1024); err != nil {
					t.Errorf("Wait failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestRateLimitedReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 2000)

	// 2000 bytes at 1000 B/s with a 1000 byte burst takes about a second
	start := time.Now()
	reader := NewRateLimitedReader(context.Background(), bytes.NewReader(data), NewTokenBucketLimiter(1000))
	out, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(out) != len(data) {
		t.Fatalf("Expected %d bytes, got %d", len(data), len(out))
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Fatalf("Limited read was too fast: %v", elapsed)
	}

	passthrough := strings.NewReader("abc")
	if NewRateLimitedReader(context.Background(), passthrough, nil) != io.Reader(passthrough) {
		t.Fatal("nil limiter should return the reader unchanged")
	}
}

func TestRateLimitedReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	limiter := NewTokenBucketLimiter(1)
	limiter.Wait(context.Background(), 1) // drain the burst

	reader := NewRateLimitedReader(ctx, strings.NewReader("abcdef"), limiter)
	_, err := io.ReadAll(reader)
	if err != context.Canceled {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

// TestParseRateLimit tests bandwidth parsing functionality
func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
		hasError bool
	}{
		{"Empty string", "", 0, false},
		{"Pure number", "1000", 1000, false},
		{"Bytes", "500B", 500, false},
		{"Kilobytes", "5K", 5 * 1024, false},
		{"Kilobytes with B", "5KB", 5 * 1024, false},
		{"Lowercase", "5m", 5 * 1024 * 1024, false},
		{"Megabytes", "10M", 10 * 1024 * 1024, false},
		{"Megabytes with B", "10MB", 10 * 1024 * 1024, false},
		{"Gigabytes", "2G", 2 * 1024 * 1024 * 1024, false},
		{"Terabytes with B", "1TB", 1024 * 1024 * 1024 * 1024, false},
		{"Decimal megabytes", "1.5M", int64(1.5 * 1024 * 1024), false},
		{"With whitespace", "  5M  ", 5 * 1024 * 1024, false},
		{"Invalid suffix", "5X", 0, true},
		{"Invalid number", "abcM", 0, true},
		{"Negative number", "-5M", 0, true},
		{"Negative bytes", "-5", 0, true},
		{"Too short", "M", 0, true},
		{"Suffix order", "5BM", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseRateLimit(tt.input)

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for input %q, but got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("For input %q, expected %d, got %d", tt.input, tt.expected, result)
			}
		})
	}
}
