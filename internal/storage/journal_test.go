package storage

import (
	"errors"
	"testing"
)

func TestJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, "sess-1")
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if err := j.Append(Entry{Kind: KindTurn, Transcript: "go to products", Action: "navigate"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Append(Entry{Kind: KindAnnouncement, Text: "Opening products.", Provider: "text"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := ReadJournal(dir, j.ID())
	if err != nil {
		t.Fatalf("ReadJournal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2", len(entries))
	}
	if entries[0].Transcript != "go to products" || entries[0].Timestamp == "" {
		t.Fatalf("entry=%+v, want transcript with timestamp", entries[0])
	}

	list := ListJournals(dir)
	if len(list) != 1 || list[0].ID != j.ID() || list[0].SessionID != "sess-1" || list[0].Entries != 2 {
		t.Fatalf("list=%+v", list)
	}

	if !DeleteJournal(dir, j.ID()) {
		t.Fatal("DeleteJournal=false, want true")
	}
	if DeleteJournal(dir, j.ID()) {
		t.Fatal("second DeleteJournal=true, want false")
	}
}

func TestJournalRejectsUnsafeIDs(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"", "..", "../etc/passwd", "a/b"} {
		if _, err := ReadJournal(dir, id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("ReadJournal(%q) err=%v, want ErrInvalidID", id, err)
		}
	}
	if _, err := OpenJournal("", "s"); err == nil {
		t.Fatal("OpenJournal with empty dir err=nil, want error")
	}
}

func TestListJournalsMissingDir(t *testing.T) {
	if list := ListJournals(t.TempDir() + "/missing"); len(list) != 0 {
		t.Fatalf("list=%v, want empty", list)
	}
}
