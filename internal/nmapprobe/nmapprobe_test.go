package nmapprobe

import "testing"

func TestFamilyPatternsWindowsWins(t *testing.T) {
	line := "OS details: Microsoft Windows 10 1809 - 1909 (95%)"
	var family string
	for _, fp := range familyPatterns {
		if fp.re.MatchString(line) {
			family = fp.family
			break
		}
	}
	if family != "windows" {
		t.Errorf("family = %q, want windows", family)
	}
}

func TestFamilyPatternsOrderMacBeforeLinux(t *testing.T) {
	line := "OS details: Apple Mac OS X 10.15 (Catalina) - 11 (Big Sur) (Darwin)"
	var family string
	for _, fp := range familyPatterns {
		if fp.re.MatchString(line) {
			family = fp.family
			break
		}
	}
	if family != "macos" {
		t.Errorf("family = %q, want macos", family)
	}
}

func TestParseVersionStripsPercentageAndTruncates(t *testing.T) {
	line := "OS details: Linux 5.4 - 5.10 (95%), Linux 5.x (80%)"
	got := parseVersion(line)
	if got != "Linux 5.4 - 5.10" {
		t.Errorf("parseVersion = %q, want %q", got, "Linux 5.4 - 5.10")
	}
}

func TestParseVersionTruncatesTo80(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	line := "OS details: " + long
	got := parseVersion(line)
	if len(got) != 80 {
		t.Errorf("parseVersion length = %d, want 80", len(got))
	}
}

func TestFindOSLineNilResult(t *testing.T) {
	if got := findOSLine(nil); got != "" {
		t.Errorf("findOSLine(nil) = %q, want empty", got)
	}
}
