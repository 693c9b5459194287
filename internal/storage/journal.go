// Package storage keeps a per-session journal of voice interactions as JSON
// files. Journals are an audit trail only; nothing reads them back into a
// running conversation.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry kinds.
const (
	KindMetadata     = "metadata"
	KindTurn         = "turn"
	KindAnnouncement = "announcement"
)

// Entry is one journal record.
type Entry struct {
	Kind       string `json:"kind"`
	Timestamp  string `json:"timestamp"`
	SessionID  string `json:"session_id,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Action     string `json:"action,omitempty"`
	ModeBefore string `json:"mode_before,omitempty"`
	ModeAfter  string `json:"mode_after,omitempty"`
	Text       string `json:"text,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Error      string `json:"error,omitempty"`
}

// JournalInfo summarizes a stored journal.
type JournalInfo struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Entries   int    `json:"entries"`
	Timestamp string `json:"timestamp"`
}

var (
	// ErrInvalidID is returned for journal IDs that are not plain file names.
	ErrInvalidID = errors.New("storage: invalid journal id")

	safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)
)

// Journal appends entries for one session. It is safe for concurrent use.
type Journal struct {
	id   string
	path string

	mu      sync.Mutex
	entries []Entry
}

// OpenJournal creates a new journal file under baseDir for sessionID.
func OpenJournal(baseDir string, sessionID string) (*Journal, error) {
	if baseDir == "" {
		return nil, errors.New("journal base dir is empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	id := time.Now().Format("2006-01-02_15-04-05") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	j := &Journal{
		id:   id,
		path: filepath.Join(baseDir, id+".json"),
		entries: []Entry{{
			Kind:      KindMetadata,
			Timestamp: time.Now().Format(time.RFC3339),
			SessionID: sessionID,
		}},
	}
	if err := writeEntries(j.path, j.entries); err != nil {
		return nil, err
	}
	return j, nil
}

// ID returns the journal identifier.
func (j *Journal) ID() string {
	return j.id
}

// Append adds e and rewrites the journal file. A zero Timestamp is set to now.
func (j *Journal) Append(e Entry) error {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().Format(time.RFC3339)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return writeEntries(j.path, j.entries)
}

// ReadJournal returns the entries of journal id, metadata excluded.
func ReadJournal(baseDir string, id string) ([]Entry, error) {
	path, err := journalPath(baseDir, id)
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}
	filtered := []Entry{}
	for _, e := range entries {
		if e.Kind == KindMetadata {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// DeleteJournal removes journal id and reports whether it existed.
func DeleteJournal(baseDir string, id string) bool {
	path, err := journalPath(baseDir, id)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return os.Remove(path) == nil
}

// ListJournals returns the journals under baseDir, newest first.
func ListJournals(baseDir string) []JournalInfo {
	list := []JournalInfo{}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return list
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		records, err := readEntries(filepath.Join(baseDir, entry.Name()))
		if err != nil || len(records) == 0 {
			continue
		}
		info := JournalInfo{
			ID:        strings.TrimSuffix(entry.Name(), ".json"),
			Entries:   len(records) - 1,
			Timestamp: records[len(records)-1].Timestamp,
		}
		if records[0].Kind == KindMetadata {
			info.SessionID = records[0].SessionID
		}
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp == list[j].Timestamp {
			return list[i].ID > list[j].ID
		}
		return list[i].Timestamp > list[j].Timestamp
	})
	return list
}

func journalPath(baseDir string, id string) (string, error) {
	if baseDir == "" {
		return "", errors.New("journal base dir is empty")
	}
	if !safeNamePattern.MatchString(id) || strings.Trim(id, ".") == "" {
		return "", ErrInvalidID
	}
	return filepath.Join(baseDir, id+".json"), nil
}

func readEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeEntries(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
