package protocol

import "testing"

func TestDefault_Name(t *testing.T) {
	table := Default()

	cases := map[int]string{
		1:   "icmp",
		6:   "tcp",
		17:  "udp",
		58:  "ipv6-icmp",
		255: "",
		-1:  "",
	}
	for num, want := range cases {
		if got := table.Name(num); got != want {
			t.Errorf("Name(%d) = %q, want %q", num, got, want)
		}
	}
}

func TestWithOverrides(t *testing.T) {
	base := Default()
	table := base.WithOverrides(map[int]string{
		89:  "  OSPF ",
		17:  "",
		253: "Experimental",
	})

	if got := table.Name(89); got != "ospf" {
		t.Errorf("Expected override to be trimmed and lowercased, got %q", got)
	}
	if got := table.Name(17); got != "" {
		t.Errorf("Expected empty override to remove udp, got %q", got)
	}
	if got := table.Name(253); got != "experimental" {
		t.Errorf("Expected new entry, got %q", got)
	}

	// The base table must not change.
	if got := base.Name(17); got != "udp" {
		t.Errorf("Base table was modified: Name(17) = %q", got)
	}
	if got := base.Name(89); got != "" {
		t.Errorf("Base table was modified: Name(89) = %q", got)
	}
}
