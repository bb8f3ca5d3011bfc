package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/nation-sim/internal/engine"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func playTurns(t *testing.T, turns int) (*engine.Game, []engine.TurnResult) {
	t.Helper()
	seed := int64(21)
	g, err := engine.New(engine.Config{Seed: &seed, Difficulty: "hard", MaxTurns: turns, NumAgents: 20})
	if err != nil {
		t.Fatal(err)
	}
	var out []engine.TurnResult
	for !g.IsFinished() {
		r, err := g.AdvanceTurn(engine.DefaultPolicies())
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, r)
	}
	return g, out
}

func TestRecordAndLoadTurns(t *testing.T) {
	db := openMemory(t)
	g, results := playTurns(t, 6)

	if err := db.RecordGame(g.Summary()); err != nil {
		t.Fatalf("RecordGame: %v", err)
	}
	totalEvents := 0
	for _, r := range results {
		if err := db.RecordTurn(r); err != nil {
			t.Fatalf("RecordTurn: %v", err)
		}
		totalEvents += len(r.Events)
	}

	row, err := db.Game(g.ID())
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if row.Seed != 21 || row.Difficulty != "hard" || row.MaxTurns != 6 {
		t.Fatalf("game row = %+v", row)
	}

	stats, err := db.LoadTurnStats(g.ID(), 0, 0, 0)
	if err != nil {
		t.Fatalf("LoadTurnStats: %v", err)
	}
	if len(stats) != 6 {
		t.Fatalf("stats rows = %d, want 6", len(stats))
	}
	for i, s := range stats {
		want := results[i]
		if s.Turn != want.Turn || s.Gini != want.State.Gini || s.Composite != want.Scores.Composite {
			t.Fatalf("row %d = %+v, want turn %d gini %v composite %d",
				i, s, want.Turn, want.State.Gini, want.Scores.Composite)
		}
	}

	window, err := db.LoadTurnStats(g.ID(), 2, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 3 || window[0].Turn != 2 || window[2].Turn != 4 {
		t.Fatalf("window = %+v", window)
	}
	limited, err := db.LoadTurnStats(g.ID(), 0, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("limited rows = %d, want 2", len(limited))
	}

	evs, err := db.LoadTurnEvents(g.ID(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != totalEvents {
		t.Fatalf("events = %d, want %d", len(evs), totalEvents)
	}
	counts, err := db.EventCounts(g.ID())
	if err != nil {
		t.Fatal(err)
	}
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != totalEvents {
		t.Fatalf("event counts sum to %d, want %d", sum, totalEvents)
	}
}

func TestRecordTurn_Idempotent(t *testing.T) {
	db := openMemory(t)
	_, results := playTurns(t, 1)
	r := results[0]
	r.Events = []engine.EventView{
		{ID: "earthquake", Category: "disaster"},
		{ID: "trade_deal", Category: "economic"},
	}
	for i := 0; i < 2; i++ {
		if err := db.RecordTurn(r); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := db.LoadTurnStats(r.GameID, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 {
		t.Fatalf("rows = %d, want 1", len(stats))
	}
	evs, err := db.LoadTurnEvents(r.GameID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("events = %d after recording twice, want 2", len(evs))
	}

	r.Events = r.Events[:1]
	if err := db.RecordTurn(r); err != nil {
		t.Fatal(err)
	}
	counts, err := db.EventCounts(r.GameID)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts["earthquake"] != 1 {
		t.Fatalf("counts after re-record = %v", counts)
	}
}

func TestDeleteGame(t *testing.T) {
	db := openMemory(t)
	g, results := playTurns(t, 3)
	if err := db.RecordGame(g.Summary()); err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if err := db.RecordTurn(r); err != nil {
			t.Fatal(err)
		}
	}

	if err := db.DeleteGame(g.ID()); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	stats, _ := db.LoadTurnStats(g.ID(), 0, 0, 0)
	evs, _ := db.LoadTurnEvents(g.ID(), 0)
	if len(stats) != 0 || len(evs) != 0 {
		t.Fatalf("rows remain after delete: %d stats, %d events", len(stats), len(evs))
	}
	if _, err := db.Game(g.ID()); err == nil {
		t.Fatal("game row remains after delete")
	}
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	g, results := playTurns(t, 1)
	if err := db.RecordGame(g.Summary()); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordTurn(results[0]); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	stats, err := reopened.LoadTurnStats(g.ID(), 0, 0, 0)
	if err != nil || len(stats) != 1 {
		t.Fatalf("stats after reopen = %v, %v", stats, err)
	}
}
