package collector

import "testing"

func TestParseDestinationExplicitPrefix(t *testing.T) {
	network, prefix, ok := parseDestination("192.168.1.0/24")
	if !ok || network != "192.168.1.0" || prefix != 24 {
		t.Errorf("got (%q, %d, %v), want (192.168.1.0, 24, true)", network, prefix, ok)
	}
}

func TestParseDestinationInferredPrefixes(t *testing.T) {
	cases := []struct {
		dest       string
		wantNet    string
		wantPrefix int
	}{
		{"10.0.0.0", "10.0.0.0", 32},
		{"10.0.0", "10.0.0", 24},
		{"10.0", "10.0", 16},
		{"10", "10", 8},
	}
	for _, c := range cases {
		network, prefix, ok := parseDestination(c.dest)
		if !ok {
			t.Fatalf("parseDestination(%q): expected ok", c.dest)
		}
		if network != c.wantNet || prefix != c.wantPrefix {
			t.Errorf("parseDestination(%q) = (%q, %d), want (%q, %d)", c.dest, network, prefix, c.wantNet, c.wantPrefix)
		}
	}
}

func TestParseDestinationRejectsZeroOctet(t *testing.T) {
	_, _, ok := parseDestination("0")
	if ok {
		t.Error("expected !ok for a bare zero octet (default route marker)")
	}
}

func TestParseDestinationRejectsGarbage(t *testing.T) {
	_, _, ok := parseDestination("not.an.ip.address.at.all")
	if ok {
		t.Error("expected !ok for an unparseable destination")
	}
}
