package domain

import "testing"

func TestEntityCloneDeepCopiesMutableFields(t *testing.T) {
	e := Entity{
		ID:         "lan-aa:bb:cc:dd:ee:ff",
		Interfaces: []Interface{{Name: "en0", IPv4: "192.168.1.2"}},
		Protocols:  map[string]int64{"TCP": 3},
	}
	clone := e.Clone()
	clone.Interfaces[0].Name = "en1"
	clone.Protocols["TCP"] = 99

	if e.Interfaces[0].Name != "en0" {
		t.Error("mutating clone's Interfaces must not affect the original")
	}
	if e.Protocols["TCP"] != 3 {
		t.Error("mutating clone's Protocols must not affect the original")
	}
}

func TestEntityCloneNilFieldsStayNil(t *testing.T) {
	e := Entity{ID: "this-device"}
	clone := e.Clone()
	if clone.Interfaces != nil || clone.Protocols != nil {
		t.Error("Clone must not allocate empty slices/maps for nil fields")
	}
}
