package report

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"custodyPool/internal/model"
)

type memWriter struct {
	stats []model.PoolWindowStats
	calls int
}

func (m *memWriter) UpsertWindowStats(_ context.Context, stats []model.PoolWindowStats) error {
	m.calls++
	m.stats = append(m.stats, stats...)
	return nil
}

const auditLog = `{"id":"1","kind":"state_created","participant":"0xad","timestamp":50,"recorded_at":""}
{"id":"2","kind":"deposited","slug":"test","pool":"0xPOOL","participant":"0x11","decimals":6,"amount":"1000000","timestamp":100,"recorded_at":""}
{"id":"3","kind":"deposited","slug":"test","pool":"0xpool","participant":"0x22","decimals":6,"amount":"1000000","timestamp":200,"recorded_at":""}
garbage
{"id":"4","kind":"withdrawn","slug":"test","pool":"0xPOOL","participant":"0x11","decimals":6,"amount":"1000000","fee":"25000","net":"975000","timestamp":350,"recorded_at":""}
`

func TestReporterWindows(t *testing.T) {
	ctx := context.Background()
	writer := &memWriter{}
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}

	r := NewReporter(Config{WindowSeconds: 300, StateStore: state}, writer, nil)
	if err := r.Run(ctx, strings.NewReader(auditLog)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.stats) != 2 {
		t.Fatalf("windows = %d", len(writer.stats))
	}

	first, second := writer.stats[0], writer.stats[1]
	if first.Deposits != 2 || first.DepositVolume != "2.000000" || first.Withdrawals != 0 || first.EffectiveFeeBps != nil {
		t.Fatalf("unexpected first window %+v", first)
	}
	if !first.WindowStart.Equal(time.Unix(0, 0)) || !first.WindowEnd.Equal(time.Unix(300, 0)) {
		t.Fatalf("unexpected first bounds %v-%v", first.WindowStart, first.WindowEnd)
	}
	if second.Withdrawals != 1 || second.WithdrawnVolume != "1.000000" || second.Fees != "0.025000" || second.NetPaid != "0.975000" {
		t.Fatalf("unexpected second window %+v", second)
	}
	if second.EffectiveFeeBps == nil || *second.EffectiveFeeBps != "250.0000" {
		t.Fatalf("effective fee = %v", second.EffectiveFeeBps)
	}

	last, ok, err := state.Load(ctx)
	if err != nil || !ok || last != 300 {
		t.Fatalf("state = %d, %v, %v", last, ok, err)
	}

	resumed := &memWriter{}
	r = NewReporter(Config{WindowSeconds: 300, StateStore: state}, resumed, nil)
	if err := r.Run(ctx, strings.NewReader(auditLog)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(resumed.stats) != 1 {
		t.Fatalf("resumed run wrote %+v", resumed.stats)
	}
	if got := resumed.stats[0]; !got.WindowStart.Equal(second.WindowStart) || got.Withdrawals != 1 || got.Fees != second.Fees || got.NetPaid != second.NetPaid {
		t.Fatalf("open window rebuilt as %+v", got)
	}
}

func deposit(id, slug, pool string, ts uint64) string {
	return fmt.Sprintf(`{"id":%q,"kind":"deposited","slug":%q,"pool":%q,"participant":"0x11","decimals":0,"amount":"1","timestamp":%d,"recorded_at":""}`+"\n", id, slug, pool, ts)
}

func TestReporterResumeRebuildsOpenWindow(t *testing.T) {
	ctx := context.Background()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	log := deposit("1", "test", "0xp", 100) + deposit("2", "test", "0xp", 200)

	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, &memWriter{}, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if last, ok, err := state.Load(ctx); err != nil || !ok || last != 0 {
		t.Fatalf("state = %d, %v, %v", last, ok, err)
	}

	log += deposit("3", "test", "0xp", 250)
	resumed := &memWriter{}
	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, resumed, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(resumed.stats) != 1 {
		t.Fatalf("windows = %d", len(resumed.stats))
	}
	if got := resumed.stats[0]; got.Deposits != 3 || got.DepositVolume != "3" {
		t.Fatalf("window rebuilt from a partial read: %+v", got)
	}
}

func TestReporterResumeKeepsEventsInCheckpointSecond(t *testing.T) {
	ctx := context.Background()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	log := deposit("1", "test", "0xp", 100) + deposit("2", "test", "0xp", 400)

	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, &memWriter{}, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if last, _, _ := state.Load(ctx); last != 300 {
		t.Fatalf("state = %d", last)
	}

	log += deposit("3", "test", "0xp", 400)
	resumed := &memWriter{}
	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, resumed, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(resumed.stats) != 1 {
		t.Fatalf("closed window rewritten: %+v", resumed.stats)
	}
	if got := resumed.stats[0]; got.WindowStart.Unix() != 300 || got.Deposits != 2 {
		t.Fatalf("unexpected window %+v", got)
	}
}

func TestReporterCheckpointsOldestOpenWindow(t *testing.T) {
	ctx := context.Background()
	state := &FileStateStore{Path: filepath.Join(t.TempDir(), "state.json")}
	log := deposit("1", "a", "0xa", 100) + deposit("2", "b", "0xb", 700)

	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, &memWriter{}, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if last, _, _ := state.Load(ctx); last != 0 {
		t.Fatalf("state = %d", last)
	}

	log += deposit("3", "a", "0xa", 120)
	resumed := &memWriter{}
	if err := NewReporter(Config{WindowSeconds: 300, StateStore: state}, resumed, nil).Run(ctx, strings.NewReader(log)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	byPool := make(map[string]model.PoolWindowStats)
	for _, st := range resumed.stats {
		byPool[st.PoolAddress] = st
	}
	if byPool["0xa"].Deposits != 2 || byPool["0xb"].Deposits != 1 {
		t.Fatalf("unexpected stats %+v", resumed.stats)
	}
}

func TestReporterRecomputeFrom(t *testing.T) {
	writer := &memWriter{}
	r := NewReporter(Config{WindowSeconds: 300, RecomputeFrom: 300}, writer, nil)
	if err := r.Run(context.Background(), strings.NewReader(auditLog)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.stats) != 1 || writer.stats[0].Withdrawals != 1 {
		t.Fatalf("unexpected stats %+v", writer.stats)
	}
}

func TestAccumulatorRejectsInconsistentWithdraw(t *testing.T) {
	event := model.Event{ID: "x", Kind: model.EventWithdrawn, Pool: "0x1", Amount: "100", Fee: "2", Net: "97"}
	acc := NewAccumulator(event, 0, 60)
	if err := acc.AddEvent(event); err == nil {
		t.Fatalf("expected error")
	}
	if acc.Withdrawals != 0 || acc.Withdrawn.Sign() != 0 {
		t.Fatalf("accumulator changed: %+v", acc)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	tests := []struct {
		value    int64
		decimals uint8
		want     string
	}{
		{value: 0, decimals: 0, want: "0"},
		{value: 1_000_000, decimals: 6, want: "1.000000"},
		{value: 25, decimals: 3, want: "0.025"},
		{value: 7, decimals: 0, want: "7"},
	}
	for _, tt := range tests {
		if got := formatTokenAmount(big.NewInt(tt.value), tt.decimals); got != tt.want {
			t.Fatalf("format %d/%d = %s, want %s", tt.value, tt.decimals, got, tt.want)
		}
	}
}

func TestWindowStart(t *testing.T) {
	if got := windowStart(359, 300); got != 300 {
		t.Fatalf("window start = %d", got)
	}
	if got := windowStart(300, 300); got != 300 {
		t.Fatalf("window start = %d", got)
	}
}

func TestReporterSlugFilter(t *testing.T) {
	writer := &memWriter{}
	r := NewReporter(Config{WindowSeconds: 300, Slugs: []string{"other"}}, writer, nil)
	if err := r.Run(context.Background(), strings.NewReader(auditLog)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if writer.calls != 0 {
		t.Fatalf("unexpected stats %+v", writer.stats)
	}
}
