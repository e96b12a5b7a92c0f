package audit

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"custodyPool/internal/model"
)

func TestJsonlSinkAppendsAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	sink := NewJsonlSink(path)
	ctx := context.Background()

	first := []model.Event{{ID: "a", Kind: model.EventDeposited, Slug: "test", Amount: "1000000", Timestamp: 1}}
	second := []model.Event{{ID: "b", Kind: model.EventWithdrawn, Slug: "test", Amount: "1000000", Fee: "25000", Net: "975000", Timestamp: 2}}
	if err := sink.PutEvents(ctx, first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := sink.PutEvents(ctx, second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.Event
	err = ReadEvents(file, func(e model.Event) error {
		got = append(got, e)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := append(first, second...)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events mismatch: %+v != %+v", got, want)
	}
}

func TestReadEventsSkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"a","kind":"deposited","participant":"x","timestamp":1,"recorded_at":""}`,
		`not json`,
		``,
		`{"id":"b","kind":"withdrawn","participant":"x","timestamp":2,"recorded_at":""}`,
	}, "\n")

	var ids []string
	var bad int
	err := ReadEvents(strings.NewReader(input), func(e model.Event) error {
		ids = append(ids, e.ID)
		return nil
	}, func([]byte, error) { bad++ })
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b"}) || bad != 1 {
		t.Fatalf("ids=%v bad=%d", ids, bad)
	}
}
