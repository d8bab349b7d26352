// Package journal keeps an append-only local history of analysis runs.
// Each run is one JSON line, so the file is greppable and safe to tail.
package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/prerak-labs/saakshi/internal/model"
)

// Entry is one recorded analysis run.
type Entry struct {
	// Kind is the analysis kind: evidence, thematic, or story.
	Kind string `json:"kind"`
	// Input identifies what was analyzed (URL or statement count).
	Input string `json:"input"`
	// TS is when the run was recorded.
	TS time.Time `json:"ts"`

	Provenance model.Provenance `json:"provenance"`

	// Result holds the full result document for the run.
	Result json.RawMessage `json:"result"`
}

// Journal appends entries to a JSONL file. A zero-value Journal is not
// usable; open one with Open or OpenDefault.
type Journal struct {
	path string
}

// DefaultPath resolves the journal location: $XDG_STATE_HOME/saakshi or
// ~/.local/state/saakshi.
func DefaultPath() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "saakshi", "history.jsonl")
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "saakshi", "history.jsonl")
}

// Open creates a journal at the given path, creating parent directories
// as needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "journal dir for %s", path)
	}
	return &Journal{path: path}, nil
}

// OpenDefault opens the journal at DefaultPath.
func OpenDefault() (*Journal, error) {
	return Open(DefaultPath())
}

// Append records one analysis run. result is marshaled into the entry.
func (j *Journal) Append(kind, input string, prov model.Provenance, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "journal marshal result")
	}
	entry := Entry{
		Kind:       kind,
		Input:      input,
		TS:         time.Now().UTC(),
		Provenance: prov,
		Result:     raw,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "journal marshal entry")
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "journal open %s", j.path)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return eris.Wrapf(err, "journal write %s", j.path)
	}
	return nil
}

// Tail returns up to n most recent entries, oldest first. Unparsable
// lines are skipped so a corrupt line never blocks history.
func (j *Journal) Tail(n int) ([]Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "journal open %s", j.path)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "journal read %s", j.path)
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}
