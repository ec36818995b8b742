package maildirbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/emersion/go-maildir"
	"github.com/kestrelmail/searchcore/internal/search"
)

type fakeIndexUpdater struct {
	location string
	flags    search.SystemFlag
}

func (f *fakeIndexUpdater) SetLocation(uid uint32, location string) error {
	f.location = location
	return nil
}

func (f *fakeIndexUpdater) SetFlags(uid uint32, flags search.SystemFlag) error {
	f.flags = flags
	return nil
}

func TestUpdateFlags_RenamesAndUpdatesIndex(t *testing.T) {
	base := t.TempDir()
	curDir := filepath.Join(base, "cur")
	if err := os.MkdirAll(curDir, 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	oldName := "1234.host:2,"
	if err := os.WriteFile(filepath.Join(curDir, oldName), []byte("msg"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx := &fakeIndexUpdater{}
	dir := maildir.Dir(base)
	if err := UpdateFlags(dir, 1, oldName, search.FlagSeen, idx); err != nil {
		t.Fatalf("UpdateFlags: %v", err)
	}

	wantName := "1234.host:2,S"
	if idx.location != wantName {
		t.Errorf("index location = %q, want %q", idx.location, wantName)
	}
	if idx.flags != search.FlagSeen {
		t.Errorf("index flags = %v, want %v", idx.flags, search.FlagSeen)
	}
	if _, err := os.Stat(filepath.Join(curDir, wantName)); err != nil {
		t.Errorf("renamed file not found: %v", err)
	}
	if _, err := os.Stat(filepath.Join(curDir, oldName)); !os.IsNotExist(err) {
		t.Error("old filename should no longer exist")
	}
}

func TestUpdateFlags_NoRenameWhenUnchanged(t *testing.T) {
	base := t.TempDir()
	curDir := filepath.Join(base, "cur")
	if err := os.MkdirAll(curDir, 0750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	name := "1234.host:2,S"
	if err := os.WriteFile(filepath.Join(curDir, name), []byte("msg"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx := &fakeIndexUpdater{}
	dir := maildir.Dir(base)
	if err := UpdateFlags(dir, 1, name, search.FlagSeen, idx); err != nil {
		t.Fatalf("UpdateFlags: %v", err)
	}
	if idx.location != "" {
		t.Error("SetLocation should not be called when the filename is unchanged")
	}
	if idx.flags != search.FlagSeen {
		t.Errorf("index flags = %v, want %v", idx.flags, search.FlagSeen)
	}
}
