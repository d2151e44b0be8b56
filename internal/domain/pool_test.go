package domain

import "testing"

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BIO/VITA", "BIO/VITA"},
		{"vita/bio", "BIO/VITA"},
		{" Vita / Bio ", "BIO/VITA"},
		{"WETH/BIO", "BIO/WETH"},
		{"SOLO", "SOLO"},
		{"A/B/C", "A/B/C"},
		{"/VITA", "/VITA"},
	}

	for _, tt := range tests {
		if got := NormalizeDisplayName(tt.in); got != tt.want {
			t.Errorf("NormalizeDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPoolKeys_SameLogicalPool(t *testing.T) {
	// Two collectors reporting the same pool with different casing and
	// orientation must produce identical keys.
	a := NameKey(NetworkEthereum, "BIO/VITA")
	b := NameKey(NetworkEthereum, "vita/bio")
	if a != b {
		t.Errorf("name keys differ: %v vs %v", a, b)
	}

	addrA := AddressKey(NetworkBase, "0xAbCd")
	addrB := AddressKey(NetworkBase, "0xabcd ")
	if addrA != addrB {
		t.Errorf("address keys differ: %v vs %v", addrA, addrB)
	}
}

func TestSyntheticKey_DistinctPerNetwork(t *testing.T) {
	eth := SyntheticKey(NetworkEthereum, "VITA")
	sol := SyntheticKey(NetworkSolana, "VITA")
	if eth == sol {
		t.Errorf("synthetic keys for different networks collided: %v", eth)
	}
}

func TestParseNetwork(t *testing.T) {
	if _, err := ParseNetwork("ethereum"); err != nil {
		t.Errorf("ParseNetwork(ethereum) failed: %v", err)
	}
	if _, err := ParseNetwork("tron"); err == nil {
		t.Error("ParseNetwork(tron) should fail")
	}
}
