package collector

import "strings"

// vendorPrefixes is a static mapping from uppercase three-octet OUI
// prefixes to vendor display strings, loaded once at process start
// (spec.md §6 "Vendor-prefix database"). A faithful build generates this
// table from the IEEE OUI registry; this is a representative subset
// covering common home/office network hardware.
var vendorPrefixes = map[string]string{
	"00:17:88": "Philips Electronics Nederland BV",
	"B8:27:EB": "Raspberry Pi Foundation",
	"DC:A6:32": "Raspberry Pi Trading Ltd",
	"E4:5F:01": "Raspberry Pi Trading Ltd",
	"00:1A:11": "Google, Inc.",
	"F4:F5:D8": "Google, Inc.",
	"3C:5A:B4": "Google, Inc.",
	"A4:77:33": "Google, Inc.",
	"00:25:00": "Apple, Inc.",
	"A4:B1:97": "Apple, Inc.",
	"AC:BC:32": "Apple, Inc.",
	"F0:18:98": "Apple, Inc.",
	"00:50:56": "VMware, Inc.",
	"00:0C:29": "VMware, Inc.",
	"00:1B:21": "Intel Corporate",
	"3C:F0:11": "Intel Corporate",
	"B4:B6:86": "Intel Corporate",
	"00:1D:D8": "Microsoft Corporation",
	"7C:1E:52": "Microsoft Corporation",
	"18:FE:34": "Espressif Inc.",
	"24:0A:C4": "Espressif Inc.",
	"EC:FA:BC": "Espressif Inc.",
	"B0:B9:8A": "TP-Link Technologies Co., Ltd.",
	"50:C7:BF": "TP-Link Technologies Co., Ltd.",
	"AC:84:C6": "TP-Link Technologies Co., Ltd.",
	"C0:25:E9": "Ubiquiti Networks Inc.",
	"24:A4:3C": "Ubiquiti Networks Inc.",
	"74:AC:B9": "Ubiquiti Networks Inc.",
	"00:17:C8": "Netgear",
	"A0:40:A0": "Netgear",
	"00:1E:58": "D-Link International",
	"1C:7E:E5": "D-Link International",
	"DC:B9:38": "Amazon Technologies Inc.",
	"68:37:E9": "Amazon Technologies Inc.",
	"FC:65:DE": "Amazon Technologies Inc.",
	"18:B4:30": "Nest Labs Inc.",
	"64:16:66": "Nest Labs Inc.",
	"44:65:0D": "Amazon Technologies Inc.",
	"B0:4E:26": "Roku, Inc.",
	"DC:3A:5E": "Roku, Inc.",
	"00:09:B0": "Sonos, Inc.",
	"5C:AA:FD": "Sonos, Inc.",
	"F8:8A:5E": "Sonos, Inc.",
	"F4:F2:6D": "Samsung Electronics Co.,Ltd",
	"00:15:99": "Samsung Electronics Co.,Ltd",
	"B8:62:1F": "Samsung Electronics Co.,Ltd",
	"00:1F:C6": "HP Inc.",
	"3C:D9:2B": "HP Inc.",
	"9C:8E:99": "HP Inc.",
	"00:26:AB": "Canon Inc.",
	"00:1E:8F": "Canon Inc.",
}

// lookupVendor returns the vendor display string for a MAC's first three
// octets, or "" if unknown.
func lookupVendor(mac string) string {
	if len(mac) < 8 {
		return ""
	}
	prefix := strings.ToUpper(mac[:8])
	return vendorPrefixes[prefix]
}
