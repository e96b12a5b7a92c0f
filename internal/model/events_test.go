package model

import (
	"encoding/json"
	"testing"
)

func TestEventAmountsEncodedAsStrings(t *testing.T) {
	event := Event{
		ID:          "2f1c0a57-8a0e-4c55-9d6c-0f3c0b8d2a11",
		Kind:        EventWithdrawn,
		Slug:        "test",
		Pool:        "0x1111111111111111111111111111111111111111",
		Participant: "0x2222222222222222222222222222222222222222",
		Amount:      "18446744073709551615",
		Fee:         "461168601842738790",
		Net:         "17985575471866812825",
		FeeRate:     250,
		Timestamp:   1700000000,
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"amount", "fee", "net"} {
		if _, ok := decoded[key].(string); !ok {
			t.Fatalf("%s should be string", key)
		}
	}
	if decoded["kind"] != string(EventWithdrawn) {
		t.Fatalf("kind mismatch: %v", decoded["kind"])
	}
}

func TestPositionDeposited(t *testing.T) {
	if (Position{}).Deposited() {
		t.Fatalf("empty position should not be deposited")
	}
	if !(Position{Amount: 7}).Deposited() {
		t.Fatalf("funded position should be deposited")
	}
}
