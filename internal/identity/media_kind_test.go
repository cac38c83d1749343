package identity

import "testing"

func TestMediaKindString(t *testing.T) {
	if KindMovie.String() != "movie" {
		t.Fatalf("unexpected movie string: %q", KindMovie.String())
	}
	if KindShow.String() != "tv" {
		t.Fatalf("unexpected show string: %q", KindShow.String())
	}
	if KindUnknown.String() != "unknown" {
		t.Fatalf("unexpected unknown string: %q", KindUnknown.String())
	}
}

func TestParseMediaKind(t *testing.T) {
	cases := map[string]MediaKind{
		"movie":  KindMovie,
		"tv":     KindShow,
		"show":   KindShow,
		" Movie": KindMovie,
		"TV":     KindShow,
		"album":  KindUnknown,
		"":       KindUnknown,
	}
	for input, want := range cases {
		if got := ParseMediaKind(input); got != want {
			t.Errorf("ParseMediaKind(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestIdentityValid(t *testing.T) {
	if (Identity{ProviderID: "603", Kind: KindMovie}).Valid() != true {
		t.Fatal("expected valid identity")
	}
	if (Identity{ProviderID: "", Kind: KindMovie}).Valid() {
		t.Fatal("blank provider id must be invalid")
	}
	if (Identity{ProviderID: "603", Kind: KindUnknown}).Valid() {
		t.Fatal("unknown kind must be invalid")
	}
}
