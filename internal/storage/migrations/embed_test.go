package migrations

import (
	"testing"
	"testing/fstest"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_initial.sql", 1, false},
		{"002_badges.sql", 2, false},
		{"010_something.sql", 10, false},
		{"notaversion.sql", 0, true},
		{"abc_initial.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPending(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.sql":    {Data: []byte("SELECT 10;")},
		"001_initial.sql": {Data: []byte("SELECT 1;")},
		"002_more.sql":    {Data: []byte("SELECT 2;")},
		"README.md":       {Data: []byte("docs")},
		"bad.sql":         {Data: []byte("SELECT 0;")},
	}

	files, err := Pending(fsys, 1)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(Pending) = %d; want 2", len(files))
	}
	if files[0].Version != 2 || files[1].Version != 10 {
		t.Errorf("versions = %d, %d; want 2, 10", files[0].Version, files[1].Version)
	}
	if files[1].SQL != "SELECT 10;" {
		t.Errorf("SQL = %q", files[1].SQL)
	}
}

func TestEmbeddedBackends(t *testing.T) {
	for name, fsys := range map[string]func() []File{
		"sqlite":   func() []File { f, _ := Pending(SQLite(), 0); return f },
		"postgres": func() []File { f, _ := Pending(Postgres(), 0); return f },
	} {
		if files := fsys(); len(files) == 0 || files[0].Version != 1 {
			t.Errorf("%s migrations = %+v; want 001 first", name, files)
		}
	}
}
