package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/posecontact/internal/checksum"
)

func tempDocs(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDocs(t)
	content := []byte("relations: []\n")
	if err := s.Write("scene.yaml", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("scene.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDocs(t)
	if err := s.Write("out/narratives/scene.txt", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("out/narratives/scene.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestList_DocumentsOnlyTopLevel(t *testing.T) {
	s := tempDocs(t)
	_ = s.Write("b.yml", []byte("b"))
	_ = s.Write("a.yaml", []byte("a"))
	_ = s.Write("c.json", []byte("{}"))
	_ = s.Write("nested/d.yaml", []byte("d"))
	_ = s.Write("readme.md", []byte("not a document"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(items), items)
	}
	want := []string{"a.yaml", "b.yml", "c.json"}
	for i, w := range want {
		if items[i].Path != w {
			t.Errorf("items[%d].Path = %q, want %q", i, items[i].Path, w)
		}
	}
	if items[0].Checksum != checksum.Sum([]byte("a")) {
		t.Errorf("checksum = %q", items[0].Checksum)
	}
}

func TestList_Subdir(t *testing.T) {
	s := tempDocs(t)
	_ = s.Write("nested/d.yaml", []byte("d"))

	items, err := s.List("nested")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Path != "nested/d.yaml" {
		t.Errorf("items = %+v", items)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDocs(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.yaml",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
	if _, err := s.List("../"); err == nil {
		t.Error("expected error listing outside root")
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempDocs(t)
	_ = s.Write("atomic.yaml", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.yaml", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.yaml")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".posecontact-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "posecontact-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
