package collector

import "testing"

func TestParseLsofBasic(t *testing.T) {
	out := "p1234\ncfirefox\nPTCP\nTST=ESTABLISHED\nn192.168.1.5:51234->142.250.80.46:443\n"
	records, pids := parseLsof(out)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.pid != "1234" || r.process != "firefox" || r.protocol != "TCP" || r.state != "ESTABLISHED" {
		t.Errorf("record = %+v", r)
	}
	if r.remoteHost != "142.250.80.46" || r.remotePort != 443 {
		t.Errorf("remote = %s:%d, want 142.250.80.46:443", r.remoteHost, r.remotePort)
	}
	if !pids["1234"] {
		t.Error("expected pid 1234 tracked")
	}
}

func TestParseLsofMultipleRecordsResetPerProcess(t *testing.T) {
	out := "p100\ncsshd\nPTCP\nn10.0.0.1:22->10.0.0.2:5000\n" +
		"p200\ncnginx\nPTCP\nn10.0.0.1:80->10.0.0.3:6000\n"
	records, pids := parseLsof(out)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].process != "sshd" || records[1].process != "nginx" {
		t.Errorf("processes = %s, %s", records[0].process, records[1].process)
	}
	if len(pids) != 2 {
		t.Errorf("expected 2 pids, got %d", len(pids))
	}
}

func TestParseLsofSkipsRecordsWithoutArrow(t *testing.T) {
	out := "p100\nclsof-listener\nPTCP\nn*:8080\n"
	records, _ := parseLsof(out)
	if len(records) != 0 {
		t.Errorf("expected no records for a listening socket with no ->, got %d", len(records))
	}
}

func TestSplitHostPortIPv4(t *testing.T) {
	host, port := splitHostPort("192.168.1.5:51234")
	if host != "192.168.1.5" || port != 51234 {
		t.Errorf("got %s:%d", host, port)
	}
}

func TestSplitHostPortBracketedIPv6(t *testing.T) {
	host, port := splitHostPort("[2001:db8::1]:443")
	if host != "2001:db8::1" || port != 443 {
		t.Errorf("got %s:%d, want 2001:db8::1:443", host, port)
	}
}

func TestIsSkippableRemote(t *testing.T) {
	cases := []struct {
		host string
		port int
		want bool
	}{
		{"127.0.0.1", 443, true},
		{"::1", 443, true},
		{"localhost", 443, true},
		{"*", 8080, true},
		{"10.0.0.1", 0, true},
		{"10.0.0.1", 443, false},
	}
	for _, c := range cases {
		if got := isSkippableRemote(c.host, c.port); got != c.want {
			t.Errorf("isSkippableRemote(%q, %d) = %v, want %v", c.host, c.port, got, c.want)
		}
	}
}

func TestExecNameResolvesAppBundle(t *testing.T) {
	got := execName("/Applications/Firefox.app/Contents/MacOS/firefox")
	if got != "Firefox" {
		t.Errorf("execName = %q, want Firefox", got)
	}
}

func TestExecNameFallsBackToBasename(t *testing.T) {
	got := execName("/usr/sbin/sshd")
	if got != "sshd" {
		t.Errorf("execName = %q, want sshd", got)
	}
}

func TestDisplayNameWithResolvedHostnameAndService(t *testing.T) {
	c := NewSocket()
	host := "www.google.com"
	c.dnsCache["142.250.80.46"] = &host

	got := c.displayName("firefox", "142.250.80.46", 443)
	want := "firefox → google.com (https)"
	if got != want {
		t.Errorf("displayName = %q, want %q", got, want)
	}
}

func TestDisplayNameFallsBackToHostPort(t *testing.T) {
	c := NewSocket()
	got := c.displayName("curl", "93.184.216.34", 8443)
	want := "curl → 93.184.216.34:8443"
	if got != want {
		t.Errorf("displayName = %q, want %q", got, want)
	}
}
