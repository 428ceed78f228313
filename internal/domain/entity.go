// Package domain defines the entity and relation types shared by every
// collector, the store, and the enrichment pipeline.
package domain

// SignalType identifies which kind of network entity a record describes.
type SignalType string

const (
	SignalHost      SignalType = "host"
	SignalWiFiAP    SignalType = "wifi_ap"
	SignalLAN       SignalType = "lan_neighbor"
	SignalBluetooth SignalType = "bluetooth"
	SignalMDNS      SignalType = "mdns_service"
	SignalSocket    SignalType = "socket"
)

// Status is an entity's lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusStale   Status = "stale"
	StatusExpired Status = "expired"
)

// HostID is the fixed identifier of the single Host entity.
const HostID = "this-device"

// Entity is the common envelope for every discovered signal endpoint. The
// variant-specific payload lives in the fields below the envelope; only the
// fields relevant to an entity's SignalType are populated, following the
// six closed variants in spec.md's data model.
type Entity struct {
	ID        string     `json:"id"`
	Type      SignalType `json:"type"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	FirstSeen int64      `json:"firstSeen"`
	LastSeen  int64      `json:"lastSeen"`

	MAC    string `json:"mac,omitempty"`
	IP     string `json:"ip,omitempty"`
	Signal *int   `json:"signal,omitempty"` // normalized 0..100

	Protocols    map[string]int64 `json:"protocols,omitempty"`
	TotalBytes   int64            `json:"totalBytes,omitempty"`
	TotalPackets int64            `json:"totalPackets,omitempty"`

	OSFamily                string  `json:"osFamily,omitempty"`
	OSVersion               string  `json:"osVersion,omitempty"`
	DeviceCategory          string  `json:"deviceCategory,omitempty"`
	OSFingerprintConfidence float64 `json:"osFingerprintConfidence,omitempty"`

	// Host
	Hostname   string      `json:"hostname,omitempty"`
	Interfaces []Interface `json:"interfaces,omitempty"`

	// Wi-Fi AP
	SSID         string `json:"ssid,omitempty"`
	BSSID        string `json:"bssid,omitempty"`
	Channel      int    `json:"channel,omitempty"`
	Band         string `json:"band,omitempty"` // "2.4", "5", "6"
	Security     string `json:"security,omitempty"`
	IsConnected  bool   `json:"isConnected,omitempty"`

	// LAN neighbor
	Interface   string `json:"interface,omitempty"`
	IsGateway   bool   `json:"isGateway,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	DeviceType  string `json:"deviceType,omitempty"`
	ProductName string `json:"productName,omitempty"`
	IconKey     string `json:"iconKey,omitempty"`

	// Bluetooth
	MinorType     string `json:"minorType,omitempty"`
	BatteryLevel  *int   `json:"batteryLevel,omitempty"`
	RSSI          *int   `json:"rssi,omitempty"`

	// mDNS service
	ServiceType string `json:"serviceType,omitempty"`
	Port        int    `json:"port,omitempty"`
	Host        string `json:"host,omitempty"`

	// Socket endpoint
	Protocol          string `json:"protocol,omitempty"` // TCP/UDP
	LocalPort         int    `json:"localPort,omitempty"`
	RemotePort        int    `json:"remotePort,omitempty"`
	RemoteHost        string `json:"remoteHost,omitempty"`
	State             string `json:"state,omitempty"`
	ProcessName       string `json:"processName,omitempty"`
	ResolvedHostname  string `json:"resolvedHostname,omitempty"`
	ServiceName       string `json:"serviceName,omitempty"`

	// Boundary-only throughput enrichment; never stored, only attached to
	// outbound snapshot copies by the orchestrator (spec.md §4.6).
	BytesPerSec    *float64 `json:"bytesPerSec,omitempty"`
	BytesInPerSec  *float64 `json:"bytesInPerSec,omitempty"`
	BytesOutPerSec *float64 `json:"bytesOutPerSec,omitempty"`
}

// Interface describes one of the host's own network interfaces.
type Interface struct {
	Name string `json:"name"`
	IPv4 string `json:"ipv4"`
	MAC  string `json:"mac"`
}

// Clone returns a deep-enough copy for safe outbound publication: slices and
// maps are copied so later boundary enrichment never mutates the store's
// copy.
func (e Entity) Clone() Entity {
	out := e
	if e.Interfaces != nil {
		out.Interfaces = append([]Interface(nil), e.Interfaces...)
	}
	if e.Protocols != nil {
		out.Protocols = make(map[string]int64, len(e.Protocols))
		for k, v := range e.Protocols {
			out.Protocols[k] = v
		}
	}
	return out
}
