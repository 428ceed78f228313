package collector

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/InfinityBowman/network-vis/internal/domain"
)

// Bluetooth discovers paired/nearby Bluetooth peers via the OS Bluetooth
// profiler (spec.md §4.2.3).
type Bluetooth struct{}

func NewBluetooth() *Bluetooth { return &Bluetooth{} }

func (c *Bluetooth) Name() string            { return "bluetooth" }
func (c *Bluetooth) Interval() time.Duration { return 8 * time.Second }

const bluetoothTimeout = 15 * time.Second

// deviceSectionKeys are tried in order because the section name has
// drifted across OS minor versions; both *_not_connected variants are
// unioned when present rather than prioritized (spec.md §9 open question).
var deviceSectionKeys = []string{"device_connected", "device_not_connected", "devices_not_connected"}

var connectedIndicatorKeys = []string{"device_isconnected", "device_connected", "connected"}

func (c *Bluetooth) Scan(ctx context.Context) Result {
	out, err := runWithTimeout(ctx, bluetoothTimeout, "system_profiler", "SPBluetoothDataType", "-json")
	if err != nil {
		log.Printf("bluetooth: profiler failed: %v", truncateErr(err))
		return Result{}
	}

	var root map[string]interface{}
	if jsonErr := json.Unmarshal(out, &root); jsonErr != nil {
		log.Printf("bluetooth: parse failed: %v", truncateErr(jsonErr))
		return Result{}
	}

	controllers, _ := root["SPBluetoothDataType"].([]interface{})
	var res Result
	for _, rawController := range controllers {
		controller, ok := rawController.(map[string]interface{})
		if !ok {
			continue
		}
		for _, sectionKey := range deviceSectionKeys {
			section, ok := controller[sectionKey].([]interface{})
			if !ok {
				continue
			}
			isConnectedSection := sectionKey == "device_connected"
			for _, rawEntry := range section {
				entry, ok := rawEntry.(map[string]interface{})
				if !ok {
					continue
				}
				for name, rawFields := range entry {
					fields, ok := rawFields.(map[string]interface{})
					if !ok {
						continue
					}
					e := c.parseDevice(name, fields, isConnectedSection)
					res.Entities = append(res.Entities, e)
					res.Relations = append(res.Relations, domain.NewRelation(e.ID, domain.HostID, domain.RelationConnectedTo))
				}
			}
		}
	}

	return res
}

func (c *Bluetooth) parseDevice(name string, fields map[string]interface{}, inConnectedSection bool) domain.Entity {
	mac, _ := fields["device_address"].(string)
	mac = normalizeMAC(mac)

	isConnected := inConnectedSection
	for _, key := range connectedIndicatorKeys {
		if v, ok := fields[key]; ok {
			if affirmative(v) {
				isConnected = true
			}
		}
	}

	var rssi *int
	if v, ok := fields["device_rssi"]; ok {
		if n, ok := parseRSSI(v); ok {
			signal := rssiToSignal(n)
			rssi = &signal
		}
	}

	var battery *int
	for _, key := range []string{"device_batteryLevel", "device_batteryLevelMain"} {
		if v, ok := fields[key]; ok {
			if n, ok := parseBattery(v); ok {
				battery = &n
				break
			}
		}
	}

	minorType, _ := fields["device_minorClassOfDevice"].(string)

	id := "bt-" + mac
	if mac == "" || mac == ":::::" {
		id = "bt-" + strings.ReplaceAll(name, " ", "-")
	}

	return domain.Entity{
		ID:           id,
		Type:         domain.SignalBluetooth,
		Name:         name,
		MAC:          mac,
		MinorType:    minorType,
		IsConnected:  isConnected,
		RSSI:         rssi,
		BatteryLevel: battery,
		Signal:       rssi,
	}
}

func affirmative(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(t)
		return s == "yes" || s == "true" || s == "attrib_yes"
	default:
		return false
	}
}

func parseBattery(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
