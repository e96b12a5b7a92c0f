package derive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var testProgram = common.HexToAddress("0x00000000000000000000000000000000000c0de1")

func TestAddressDeterministic(t *testing.T) {
	slug := MustSlug("summer-drop")
	first := Pool(testProgram, slug)
	second := Pool(testProgram, MustSlug("summer-drop"))
	if first != second {
		t.Fatalf("pool address not stable: %s != %s", first.Hex(), second.Hex())
	}
	if first == (common.Address{}) {
		t.Fatalf("pool address is zero")
	}
}

func TestAddressNamespacesDistinct(t *testing.T) {
	slug := MustSlug("alpha")
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")

	addrs := map[string]common.Address{
		"state":     State(testProgram),
		"pool":      Pool(testProgram, slug),
		"user_pool": Position(testProgram, slug, user),
		"vault":     DepositVault(testProgram, slug),
		"fee_vault": FeeVault(testProgram, slug),
	}

	seen := make(map[common.Address]string, len(addrs))
	for name, addr := range addrs {
		if other, ok := seen[addr]; ok {
			t.Fatalf("%s collides with %s: %s", name, other, addr.Hex())
		}
		seen[addr] = name
	}
}

func TestAddressDependsOnProgramAndSeeds(t *testing.T) {
	slug := MustSlug("alpha")
	otherProgram := common.HexToAddress("0x00000000000000000000000000000000000c0de2")
	if Pool(testProgram, slug) == Pool(otherProgram, slug) {
		t.Fatalf("program id ignored in derivation")
	}
	if Pool(testProgram, slug) == Pool(testProgram, MustSlug("alpha2")) {
		t.Fatalf("slug ignored in derivation")
	}

	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if Position(testProgram, slug, a) == Position(testProgram, slug, b) {
		t.Fatalf("participant ignored in derivation")
	}
}

func TestParseSlug(t *testing.T) {
	cases := []struct {
		input string
		ok    bool
	}{
		{"test", true},
		{"Pool-01", true},
		{"a", true},
		{"abcdefghijklmnopqrstuvwxyz012345", true},
		{"", false},
		{"abcdefghijklmnopqrstuvwxyz0123456", false},
		{"with space", false},
		{"under_score", false},
		{"emoji-☃", false},
		{"slash/", false},
	}

	for _, tc := range cases {
		_, err := ParseSlug(tc.input)
		if tc.ok && err != nil {
			t.Fatalf("ParseSlug(%q) unexpected error: %v", tc.input, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidSlug) {
			t.Fatalf("ParseSlug(%q) error = %v, want ErrInvalidSlug", tc.input, err)
		}
	}
}

func TestSlugEncodingZeroPadded(t *testing.T) {
	slug := MustSlug("test")
	want := make([]byte, SlugSize)
	copy(want, "test")
	if !bytes.Equal(slug.Bytes(), want) {
		t.Fatalf("slug bytes = %x, want %x", slug.Bytes(), want)
	}
	if slug.String() != "test" {
		t.Fatalf("slug string = %q", slug.String())
	}
}

func TestPoolCapabilityVerify(t *testing.T) {
	slug := MustSlug("alpha")
	capability := PoolCapability(testProgram, slug)
	if capability.Identity() != Pool(testProgram, slug) {
		t.Fatalf("capability identity mismatch")
	}
	if !capability.Verify(testProgram) {
		t.Fatalf("capability should verify under its program")
	}

	otherProgram := common.HexToAddress("0x00000000000000000000000000000000000c0de2")
	if capability.Verify(otherProgram) {
		t.Fatalf("capability verified under foreign program")
	}

	var zero Capability
	if zero.Verify(testProgram) {
		t.Fatalf("zero capability verified")
	}
}

func TestParticipantVerify(t *testing.T) {
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if !Participant(user).Verify(testProgram) {
		t.Fatalf("participant should verify")
	}
	if Participant(common.Address{}).Verify(testProgram) {
		t.Fatalf("zero participant verified")
	}
}
