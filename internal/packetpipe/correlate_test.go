package packetpipe

import "testing"

func TestCorrelationIndexResolveNodePrefersNonHost(t *testing.T) {
	idx := newCorrelationIndex()
	idx.Set(map[string]string{
		"192.168.1.2":  "this-device",
		"192.168.1.42": "lan-aa:bb:cc:dd:ee:ff",
	}, map[string]bool{"192.168.1.2": true})

	nodeID, ok := idx.resolveNode("192.168.1.2", "192.168.1.42")
	if !ok || nodeID != "lan-aa:bb:cc:dd:ee:ff" {
		t.Errorf("resolveNode = (%q, %v), want the non-host side", nodeID, ok)
	}

	nodeID, ok = idx.resolveNode("192.168.1.42", "192.168.1.2")
	if !ok || nodeID != "lan-aa:bb:cc:dd:ee:ff" {
		t.Errorf("resolveNode = (%q, %v), want the non-host side regardless of position", nodeID, ok)
	}
}

func TestCorrelationIndexResolveNodeFallsBackToAnyResolved(t *testing.T) {
	idx := newCorrelationIndex()
	idx.Set(map[string]string{"192.168.1.2": "this-device"}, map[string]bool{"192.168.1.2": true})

	nodeID, ok := idx.resolveNode("192.168.1.2", "203.0.113.9")
	if !ok || nodeID != "this-device" {
		t.Errorf("resolveNode = (%q, %v), want fallback to the host side", nodeID, ok)
	}
}

func TestCorrelationIndexResolveNodeUnknown(t *testing.T) {
	idx := newCorrelationIndex()
	_, ok := idx.resolveNode("10.0.0.1", "10.0.0.2")
	if ok {
		t.Error("expected no resolution when neither side is known")
	}
}

func TestCorrelationIndexIsHost(t *testing.T) {
	idx := newCorrelationIndex()
	idx.Set(map[string]string{}, map[string]bool{"192.168.1.2": true})
	if !idx.IsHost("192.168.1.2") {
		t.Error("expected 192.168.1.2 to be a host IP")
	}
	if idx.IsHost("192.168.1.42") {
		t.Error("expected 192.168.1.42 to not be a host IP")
	}
}
