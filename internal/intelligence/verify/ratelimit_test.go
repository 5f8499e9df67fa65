package verify

import (
	"context"
	"testing"
	"time"
)

func TestHostOf(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://www.courtlistener.com/api/rest/v4/search/", "courtlistener.com"},
		{"https://supreme.justia.com/cases/federal/us/347/483/", "supreme.justia.com"},
		{"not a url", "not a url"},
	}
	for _, c := range cases {
		if got := hostOf(c.in); got != c.want {
			t.Errorf("hostOf(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDomainLimiter_EnforcesInterval(t *testing.T) {
	d := newDomainLimiter(func(string) time.Duration { return 30 * time.Millisecond })

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := d.Wait(context.Background(), "https://example.com/a"); err != nil {
			t.Fatal(err)
		}
	}
	// First request is free, the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Fatalf("elapsed = %v, want >= ~60ms", elapsed)
	}
}

func TestDomainLimiter_DomainsAreIndependent(t *testing.T) {
	d := newDomainLimiter(func(string) time.Duration { return time.Minute })

	if err := d.Wait(context.Background(), "https://a.example.com/"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	// A different host must not inherit the first host's wait.
	if err := d.Wait(ctx, "https://b.example.com/"); err != nil {
		t.Fatalf("independent domain blocked: %v", err)
	}
}

func TestDomainLimiter_WaitCancellable(t *testing.T) {
	d := newDomainLimiter(func(string) time.Duration { return time.Minute })

	if err := d.Wait(context.Background(), "https://slow.example.com/"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx, "https://slow.example.com/"); err == nil {
		t.Fatal("expected cancellation while waiting for the rate limit")
	}
}
