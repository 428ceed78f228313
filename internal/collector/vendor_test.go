package collector

import "testing"

func TestLookupVendorKnownPrefix(t *testing.T) {
	got := lookupVendor("b8:27:eb:11:22:33")
	if got != "Raspberry Pi Foundation" {
		t.Errorf("lookupVendor = %q, want Raspberry Pi Foundation", got)
	}
}

func TestLookupVendorUnknownPrefix(t *testing.T) {
	if got := lookupVendor("01:02:03:04:05:06"); got != "" {
		t.Errorf("lookupVendor = %q, want empty for an unknown prefix", got)
	}
}

func TestLookupVendorShortMAC(t *testing.T) {
	if got := lookupVendor("aa:bb"); got != "" {
		t.Errorf("lookupVendor = %q, want empty for a too-short MAC", got)
	}
}
