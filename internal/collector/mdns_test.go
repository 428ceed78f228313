package collector

import "testing"

func TestNormalizeServiceTypeAlreadySuffixed(t *testing.T) {
	if got := normalizeServiceType("_airplay._tcp"); got != "_airplay._tcp" {
		t.Errorf("normalizeServiceType(_airplay._tcp) = %q, want _airplay._tcp (no double suffix)", got)
	}
}

func TestNormalizeServiceTypeBareLabel(t *testing.T) {
	if got := normalizeServiceType("raop"); got != "_raop._tcp" {
		t.Errorf("normalizeServiceType(raop) = %q, want _raop._tcp", got)
	}
}

func TestNormalizeServiceTypeTrailingDomainDot(t *testing.T) {
	if got := normalizeServiceType("_http._tcp."); got != "_http._tcp" {
		t.Errorf("normalizeServiceType(_http._tcp.) = %q, want _http._tcp", got)
	}
}

func TestNormalizeServiceTypeUDP(t *testing.T) {
	if got := normalizeServiceType("_sleep-proxy._udp"); got != "_sleep-proxy._tcp" {
		t.Errorf("normalizeServiceType(_sleep-proxy._udp) = %q, want _sleep-proxy._tcp", got)
	}
}

func TestDedupePreservesFirstOccurrenceOrder(t *testing.T) {
	got := dedupe([]string{"_http._tcp", "_ssh._tcp", "_http._tcp"})
	want := []string{"_http._tcp", "_ssh._tcp"}
	if len(got) != len(want) {
		t.Fatalf("dedupe length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dedupe[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
