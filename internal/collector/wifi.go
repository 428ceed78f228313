package collector

import (
	"bufio"
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// WiFi discovers the currently-associated access point via the OS wireless
// profiler (spec.md §4.2.2).
type WiFi struct{}

func NewWiFi() *WiFi { return &WiFi{} }

func (c *WiFi) Name() string            { return "wifi" }
func (c *WiFi) Interval() time.Duration { return 10 * time.Second }

const (
	wifiTimeout    = 15 * time.Second
	wifiSSIDTimeout = 5 * time.Second
	redactedSSID   = "<redacted>"
	fallbackSSID   = "Connected Wi-Fi"
)

type airportReport struct {
	SPAirPortDataType []airportController `json:"SPAirPortDataType"`
}

type airportController struct {
	Interfaces []airportInterface `json:"spairport_airport_interfaces"`
}

type airportInterface struct {
	Name    string          `json:"_name"`
	Current *airportNetwork `json:"spairport_current_network_information"`
}

type airportNetwork struct {
	SSID     string      `json:"_name"`
	Channel  interface{} `json:"spairport_network_channel"`
	Security string      `json:"spairport_security_mode"`
	RSSI     interface{} `json:"spairport_signal_noise"`
}

func (c *WiFi) Scan(ctx context.Context) Result {
	out, err := runWithTimeout(ctx, wifiTimeout, "system_profiler", "SPAirPortDataType", "-json")
	if err != nil {
		log.Printf("wifi: profiler failed: %v", truncateErr(err))
		return Result{}
	}

	var report airportReport
	if jsonErr := json.Unmarshal(out, &report); jsonErr != nil {
		log.Printf("wifi: parse failed: %v", truncateErr(jsonErr))
		return Result{}
	}

	var res Result
	for _, controller := range report.SPAirPortDataType {
		for _, iface := range controller.Interfaces {
			net := iface.Current
			if net == nil {
				continue
			}
			channel, ok := parseChannel(net.Channel)
			if !ok {
				continue
			}

			ssid := net.SSID
			if ssid == redactedSSID {
				if fallback := c.fallbackSSID(ctx, iface.Name); fallback != "" {
					ssid = fallback
				} else {
					ssid = fallbackSSID
				}
			}

			signal := 0
			hasSignal := false
			if rssi, ok := parseRSSI(net.RSSI); ok {
				signal = rssiToSignal(rssi)
				hasSignal = true
			}

			id := "wifi-" + ssid
			e := domain.Entity{
				ID:          id,
				Type:        domain.SignalWiFiAP,
				Name:        ssid,
				SSID:        ssid,
				Channel:     channel,
				Band:        bandForChannel(channel),
				Security:    net.Security,
				IsConnected: true,
			}
			if hasSignal {
				e.Signal = &signal
			}
			res.Entities = append(res.Entities, e)
			res.Relations = append(res.Relations, domain.NewRelation(id, domain.HostID, domain.RelationConnectedTo))
		}
	}

	return res
}

// fallbackSSID returns the first preferred network for iface, used when the
// OS has redacted the currently-connected SSID to "<redacted>" for lack of
// location permission. Not guaranteed to be the connected network
// (spec.md §9 open questions).
func (c *WiFi) fallbackSSID(ctx context.Context, iface string) string {
	out, err := runWithTimeout(ctx, wifiSSIDTimeout, "networksetup", "-listpreferredwirelessnetworks", iface)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		return line
	}
	return ""
}

func parseChannel(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		fields := strings.Fields(t)
		if len(fields) == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func bandForChannel(channel int) string {
	switch {
	case channel > 177:
		return "6"
	case channel > 14:
		return "5"
	default:
		return "2.4"
	}
}
