// Package replay writes and verifies compressed turn logs. A log is zstd
// compressed JSONL: a header line followed by one turn result per line.
// Logs carry the seed and every policy choice, so a fresh game can replay
// the run and confirm it reproduces bit for bit.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/events"
)

// Version is the current log format version.
const Version = 1

// ErrBadLog is returned for malformed or out-of-order logs.
var ErrBadLog = errors.New("bad replay log")

// Header is the first line of a log and describes the game it records.
type Header struct {
	Version       int               `json:"version"`
	GameID        string            `json:"game_id"`
	Seed          int64             `json:"seed"`
	Difficulty    events.Difficulty `json:"difficulty"`
	MaxTurns      int               `json:"max_turns"`
	StepsPerTurn  int               `json:"steps_per_turn"`
	NumAgents     int               `json:"num_agents"`
	InitialWealth float64           `json:"initial_wealth"`
}

// HeaderFor describes g at creation time.
func HeaderFor(g *engine.Game) Header {
	s := g.Summary()
	return Header{
		Version:       Version,
		GameID:        s.GameID,
		Seed:          s.Seed,
		Difficulty:    s.Difficulty,
		MaxTurns:      s.MaxTurns,
		StepsPerTurn:  s.StepsPerTurn,
		NumAgents:     s.NumAgents,
		InitialWealth: s.InitialWealth,
	}
}

// Config rebuilds the engine configuration the log was recorded with.
func (h Header) Config() engine.Config {
	seed := h.Seed
	return engine.Config{
		Seed:          &seed,
		Difficulty:    h.Difficulty,
		MaxTurns:      h.MaxTurns,
		StepsPerTurn:  h.StepsPerTurn,
		NumAgents:     h.NumAgents,
		InitialWealth: h.InitialWealth,
	}
}

// Writer appends turns to a log. Not safe for concurrent use.
type Writer struct {
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter starts a log on w and writes the header.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	lw := &Writer{enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}
	if err := lw.writeLine(h); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return lw, nil
}

// WriteTurn appends one turn. The cumulative history is dropped; it is
// rebuilt from the per-turn states on read.
func (w *Writer) WriteTurn(r engine.TurnResult) error {
	r.History = engine.HistoryData{}
	return w.writeLine(r)
}

func (w *Writer) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and finishes the zstd frame. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		_ = w.enc.Close()
		return err
	}
	return w.enc.Close()
}

// Log is a decoded replay log.
type Log struct {
	Header Header
	Turns  []engine.TurnResult
}

// Read decodes a full log.
func Read(r io.Reader) (Log, error) {
	var l Log
	dec, err := zstd.NewReader(r)
	if err != nil {
		return l, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return l, fmt.Errorf("read header: %w", err)
		}
		return l, fmt.Errorf("%w: empty log", ErrBadLog)
	}
	if err := json.Unmarshal(sc.Bytes(), &l.Header); err != nil {
		return l, fmt.Errorf("%w: header: %v", ErrBadLog, err)
	}
	if l.Header.Version != Version {
		return l, fmt.Errorf("%w: unsupported version %d", ErrBadLog, l.Header.Version)
	}

	var hist engine.HistoryData
	for sc.Scan() {
		var t engine.TurnResult
		if err := json.Unmarshal(sc.Bytes(), &t); err != nil {
			return l, fmt.Errorf("%w: turn %d: %v", ErrBadLog, len(l.Turns)+1, err)
		}
		if t.Turn != len(l.Turns)+1 {
			return l, fmt.Errorf("%w: expected turn %d, found %d", ErrBadLog, len(l.Turns)+1, t.Turn)
		}
		hist.Gini = append(hist.Gini, t.State.Gini)
		hist.MeanWealth = append(hist.MeanWealth, t.State.MeanWealth)
		hist.MeanHappiness = append(hist.MeanHappiness, t.State.MeanHappiness)
		hist.MeanProductivity = append(hist.MeanProductivity, t.State.MeanProductivity)
		t.History = HistoryUpTo(hist, t.Turn)
		l.Turns = append(l.Turns, t)
	}
	if err := sc.Err(); err != nil {
		return l, fmt.Errorf("read turns: %w", err)
	}
	return l, nil
}

// HistoryUpTo returns a copy of the first n entries of h.
func HistoryUpTo(h engine.HistoryData, n int) engine.HistoryData {
	return engine.HistoryData{
		Gini:             append([]float64(nil), h.Gini[:n]...),
		MeanWealth:       append([]float64(nil), h.MeanWealth[:n]...),
		MeanHappiness:    append([]float64(nil), h.MeanHappiness[:n]...),
		MeanProductivity: append([]float64(nil), h.MeanProductivity[:n]...),
	}
}

// Mismatch is one replayed turn that did not match the log.
type Mismatch struct {
	Turn  int    `json:"turn"`
	Field string `json:"field"`
}

// Report summarizes a verification run.
type Report struct {
	GameID     string     `json:"game_id"`
	Turns      int        `json:"turns"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether every turn reproduced exactly.
func (r Report) OK() bool { return len(r.Mismatches) == 0 }

// Verify replays the log from its header with the logged policies and
// compares every turn's events, state and scores.
func Verify(l Log) (Report, error) {
	rep := Report{GameID: l.Header.GameID, Turns: len(l.Turns)}
	g, err := engine.New(l.Header.Config())
	if err != nil {
		return rep, fmt.Errorf("rebuild game: %w", err)
	}

	for _, want := range l.Turns {
		got, err := g.AdvanceTurn(want.Policies)
		if err != nil {
			return rep, fmt.Errorf("replay turn %d: %w", want.Turn, err)
		}
		if !sameEvents(got.Events, want.Events) {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Turn: want.Turn, Field: "events"})
		}
		if !reflect.DeepEqual(got.State, want.State) {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Turn: want.Turn, Field: "state"})
		}
		if got.Scores != want.Scores {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Turn: want.Turn, Field: "scores"})
		}
		if got.IsFinished != want.IsFinished {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Turn: want.Turn, Field: "is_finished"})
		}
	}
	return rep, nil
}

func sameEvents(a, b []engine.EventView) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
