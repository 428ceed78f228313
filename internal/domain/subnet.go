package domain

// Subnet describes a routed network reachable from one of the host's own
// interfaces. Subnets are a side channel, never entities (spec.md §3).
type Subnet struct {
	CIDR       string `json:"cidr"`
	Network    string `json:"network"`
	Prefix     int    `json:"prefix"`
	Gateway    string `json:"gateway,omitempty"`
	Interface  string `json:"interface"`
	HostIPv4   string `json:"hostIpv4"`
}
