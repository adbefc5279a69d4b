package fingerprint

import "testing"

func TestComputeIsDeterministic(t *testing.T) {
	a := Compute("/data/big.csv", 1024, 1700000000000)
	b := Compute("/data/big.csv", 1024, 1700000000000)
	if a != b {
		t.Fatalf("expected deterministic id, got %q and %q", a, b)
	}
	if len(a) != Length {
		t.Fatalf("expected %d hex chars, got %d (%q)", Length, len(a), a)
	}
}

func TestComputeChangesWithIdentity(t *testing.T) {
	base := Compute("/data/big.csv", 1024, 1700000000000)

	if got := Compute("/data/other.csv", 1024, 1700000000000); got == base {
		t.Fatalf("different path produced same id")
	}
	if got := Compute("/data/big.csv", 2048, 1700000000000); got == base {
		t.Fatalf("different size produced same id")
	}
	if got := Compute("/data/big.csv", 1024, 1700000000001); got == base {
		t.Fatalf("different mtime produced same id")
	}
}
