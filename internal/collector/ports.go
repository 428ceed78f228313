package collector

// wellKnownPorts maps a handful of common remote ports to a human-readable
// service label, used by the Socket Endpoint collector when composing a
// display name (spec.md §4.2.5).
var wellKnownPorts = map[int]string{
	20:   "ftp-data",
	21:   "ftp",
	22:   "ssh",
	23:   "telnet",
	25:   "smtp",
	53:   "dns",
	80:   "http",
	110:  "pop3",
	123:  "ntp",
	143:  "imap",
	443:  "https",
	445:  "smb",
	587:  "smtp",
	993:  "imaps",
	995:  "pop3s",
	3306: "mysql",
	3389: "rdp",
	5432: "postgres",
	5900: "vnc",
	6379: "redis",
	8080: "http-alt",
	8443: "https-alt",
}
