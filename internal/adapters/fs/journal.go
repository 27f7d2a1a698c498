// Package fs provides file system adapters.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nanoforge-io/synthctl/internal/domain"
)

const journalFileName = "sessions.json"

// SessionJournal implements ports.SessionJournal using a JSON file.
// The whole journal is rewritten atomically on each append; session turnover
// is low (one record per finished session), so this stays cheap.
type SessionJournal struct {
	dir string
}

// NewSessionJournal creates a SessionJournal for the given directory.
func NewSessionJournal(dir string) *SessionJournal {
	return &SessionJournal{dir: dir}
}

// Load retrieves all journaled session records, oldest first.
// Returns an empty slice and nil error if no journal file exists.
func (j *SessionJournal) Load(ctx context.Context) ([]domain.SessionRecord, error) {
	path := filepath.Join(j.dir, journalFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []domain.SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Append records one finished session.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (j *SessionJournal) Append(ctx context.Context, record domain.SessionRecord) error {
	records, err := j.Load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	if err := os.MkdirAll(j.dir, 0o700); err != nil {
		return err
	}

	path := filepath.Join(j.dir, journalFileName)
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
