package ledger

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  uint64
		ok    bool
	}{
		{"0", 0, true},
		{"18446744073709551615", 18446744073709551615, true},
		{"25000.000", 25000, true},
		{"18446744073709551616", 0, false},
		{"1.5", 0, false},
		{"-1", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.input)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseAmount(%q) = %d, %v; want %d", tc.input, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseAmount(%q) expected error", tc.input)
		}
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 7, 975000, 18446744073709551615} {
		got, err := ParseAmount(FormatAmount(v))
		if err != nil || got != v {
			t.Fatalf("round trip %d: got %d, %v", v, got, err)
		}
	}
}
