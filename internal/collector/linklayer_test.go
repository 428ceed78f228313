package collector

import "testing"

func TestArpLineRegexMatchesStandardLine(t *testing.T) {
	line := "? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]"
	m := arpLineRe.FindStringSubmatch(line)
	if m == nil {
		t.Fatal("expected a match")
	}
	ip, mac, iface, flags := m[1], m[2], m[3], m[4]
	if ip != "192.168.1.1" || mac != "aa:bb:cc:dd:ee:ff" || iface != "en0" {
		t.Errorf("ip=%s mac=%s iface=%s", ip, mac, iface)
	}
	if !(len(flags) > 0) {
		t.Error("expected non-empty flags capturing the ifscope marker")
	}
}

func TestArpLineRegexCapturesIncompleteMarker(t *testing.T) {
	line := "? (192.168.1.77) at (incomplete) on en0 ifscope [ethernet]"
	m := arpLineRe.FindStringSubmatch(line)
	if m == nil {
		t.Fatal("expected the regex itself to still match; incomplete filtering happens in Scan")
	}
	if m[2] != "(incomplete)" {
		t.Errorf("mac group = %q, want (incomplete)", m[2])
	}
}

func TestArpLineRegexRejectsGarbage(t *testing.T) {
	if arpLineRe.FindStringSubmatch("not an arp line at all") != nil {
		t.Error("expected no match for a non-ARP line")
	}
}
