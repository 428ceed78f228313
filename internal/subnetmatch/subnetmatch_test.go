package subnetmatch

import (
	"testing"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

func testSubnets() []domain.Subnet {
	return []domain.Subnet{
		{CIDR: "192.168.1.0/24", Network: "192.168.1.0", Prefix: 24, Interface: "en0"},
		{CIDR: "10.0.0.0/8", Network: "10.0.0.0", Prefix: 8, Interface: "en1"},
	}
}

func TestFindMatchesContainingSubnet(t *testing.T) {
	s, ok := Find("192.168.1.42", testSubnets())
	if !ok {
		t.Fatal("expected a match")
	}
	if s.CIDR != "192.168.1.0/24" {
		t.Errorf("CIDR = %v, want 192.168.1.0/24", s.CIDR)
	}
}

func TestFindNoMatch(t *testing.T) {
	_, ok := Find("172.16.0.5", testSubnets())
	if ok {
		t.Error("expected no match for an address outside every subnet")
	}
}

func TestFindFirstWins(t *testing.T) {
	subnets := []domain.Subnet{
		{Network: "192.168.0.0", Prefix: 16, Interface: "en0"},
		{Network: "192.168.1.0", Prefix: 24, Interface: "en1"},
	}
	s, ok := Find("192.168.1.42", subnets)
	if !ok {
		t.Fatal("expected a match")
	}
	if s.Interface != "en0" {
		t.Errorf("Interface = %v, want en0 (first containing subnet wins)", s.Interface)
	}
}

func TestFindInvalidIP(t *testing.T) {
	_, ok := Find("not-an-ip", testSubnets())
	if ok {
		t.Error("expected no match for an unparseable address")
	}
}

func TestFindPrefixZeroMatchesEverything(t *testing.T) {
	subnets := []domain.Subnet{{Network: "0.0.0.0", Prefix: 0}}
	_, ok := Find("8.8.8.8", subnets)
	if !ok {
		t.Error("expected /0 to match any address")
	}
}
