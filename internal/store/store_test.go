package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/me/quill/internal/logging"
	"github.com/me/quill/pkg/model"
)

func sampleCredentials() Credentials {
	return Credentials{
		Token: "t1",
		User:  model.User{ID: 7, Name: "Ann", Email: "ann@x.com", Role: model.RoleAuthor},
	}
}

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()
	sq, err := NewSQLiteBackend(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Backend{
		"file":   NewFileBackend(filepath.Join(t.TempDir(), "creds")),
		"sqlite": sq,
		"memory": NewMemoryBackend(),
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			st := New(backend, logging.Discard())
			want := sampleCredentials()

			if err := st.Put(want); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := st.Get()
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got == nil {
				t.Fatal("Get returned no credentials after Put")
			}
			if *got != want {
				t.Errorf("Get = %+v, want %+v", *got, want)
			}

			// Overwrite replaces both entries.
			next := Credentials{Token: "t2", User: model.User{ID: 9, Name: "Bob", Email: "b@x.com", Role: model.RoleAdmin}}
			if err := st.Put(next); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, _ = st.Get()
			if got == nil || *got != next {
				t.Errorf("Get after overwrite = %+v, want %+v", got, next)
			}
		})
	}
}

func TestCredentialStore_ClearIsIdempotent(t *testing.T) {
	for name, backend := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			st := New(backend, logging.Discard())
			if err := st.Put(sampleCredentials()); err != nil {
				t.Fatalf("Put: %v", err)
			}
			for i := 0; i < 2; i++ {
				if err := st.Clear(); err != nil {
					t.Fatalf("Clear #%d: %v", i+1, err)
				}
			}
			got, err := st.Get()
			if err != nil || got != nil {
				t.Errorf("Get after Clear = %+v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestCredentialStore_Get_NoPartialHydration(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{"empty", nil},
		{"token only", map[string]string{KeyToken: "t1"}},
		{"user only", map[string]string{KeyUser: `{"id":7,"name":"Ann","email":"a@x.com","role":"AUTHOR"}`}},
		{"empty token", map[string]string{KeyToken: "", KeyUser: `{"id":7,"name":"Ann","email":"a@x.com","role":"AUTHOR"}`}},
		{"corrupt user", map[string]string{KeyToken: "t1", KeyUser: `{"id":`}},
		{"unknown role", map[string]string{KeyToken: "t1", KeyUser: `{"id":7,"name":"Ann","email":"a@x.com","role":"OWNER"}`}},
		{"missing role", map[string]string{KeyToken: "t1", KeyUser: `{"id":7,"name":"Ann","email":"a@x.com"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			for k, v := range tt.entries {
				backend.Write(k, v)
			}
			got, err := New(backend, logging.Discard()).Get()
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got != nil {
				t.Errorf("Get = %+v, want nil", got)
			}
		})
	}
}

// faultyBackend wraps a MemoryBackend and fails selected operations.
type faultyBackend struct {
	*MemoryBackend
	failRead   bool
	failWrite  map[string]bool
	failRemove map[string]bool
}

var errDisk = errors.New("disk full")

func (b *faultyBackend) Read(key string) (string, bool, error) {
	if b.failRead {
		return "", false, errDisk
	}
	return b.MemoryBackend.Read(key)
}

func (b *faultyBackend) Write(key, value string) error {
	if b.failWrite[key] {
		return errDisk
	}
	return b.MemoryBackend.Write(key, value)
}

func (b *faultyBackend) Remove(key string) error {
	if b.failRemove[key] {
		return errDisk
	}
	return b.MemoryBackend.Remove(key)
}

func TestCredentialStore_Put_RollsBackToken(t *testing.T) {
	t.Run("no previous credentials", func(t *testing.T) {
		backend := &faultyBackend{MemoryBackend: NewMemoryBackend(), failWrite: map[string]bool{KeyUser: true}}
		st := New(backend, logging.Discard())

		err := st.Put(sampleCredentials())
		var se *model.StorageError
		if !errors.As(err, &se) || se.Key != KeyUser {
			t.Fatalf("Put error = %v, want StorageError on user", err)
		}
		if _, ok, _ := backend.MemoryBackend.Read(KeyToken); ok {
			t.Error("token entry left behind after failed Put")
		}
	})

	t.Run("previous credentials kept", func(t *testing.T) {
		backend := &faultyBackend{MemoryBackend: NewMemoryBackend()}
		st := New(backend, logging.Discard())
		old := sampleCredentials()
		if err := st.Put(old); err != nil {
			t.Fatalf("Put: %v", err)
		}

		backend.failWrite = map[string]bool{KeyUser: true}
		next := Credentials{Token: "t2", User: model.User{ID: 9, Name: "Bob", Role: model.RoleReader}}
		if err := st.Put(next); err == nil {
			t.Fatal("expected Put to fail")
		}

		got, err := st.Get()
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got == nil || *got != old {
			t.Errorf("Get after failed Put = %+v, want previous %+v", got, old)
		}
	})
}

func TestCredentialStore_Put_RejectsEmptyToken(t *testing.T) {
	st := New(NewMemoryBackend(), logging.Discard())
	err := st.Put(Credentials{User: sampleCredentials().User})
	if !errors.Is(err, model.ErrPartialSession) {
		t.Errorf("Put error = %v, want ErrPartialSession", err)
	}
}

func TestCredentialStore_Get_ReadFailure(t *testing.T) {
	backend := &faultyBackend{MemoryBackend: NewMemoryBackend(), failRead: true}
	_, err := New(backend, logging.Discard()).Get()
	var se *model.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Get error = %v, want StorageError", err)
	}
	if !errors.Is(err, errDisk) {
		t.Error("StorageError should unwrap to the backend error")
	}
}

func TestCredentialStore_Clear_AttemptsBoth(t *testing.T) {
	backend := &faultyBackend{MemoryBackend: NewMemoryBackend(), failRemove: map[string]bool{KeyToken: true}}
	st := New(backend, logging.Discard())
	if err := st.Put(sampleCredentials()); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := st.Clear(); err == nil {
		t.Fatal("expected Clear to report the token failure")
	}
	if _, ok, _ := backend.MemoryBackend.Read(KeyUser); ok {
		t.Error("user entry not removed after token removal failed")
	}
}

func TestFileBackend_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "quill")
	b := NewFileBackend(dir)
	if err := b.Write(KeyToken, "secret"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, KeyToken))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
	dinfo, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if perm := dinfo.Mode().Perm(); perm != 0700 {
		t.Errorf("dir mode = %o, want 700", perm)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	if err := b.Write("../escape", "x"); err == nil {
		t.Error("expected error for key with path separator")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{KindFile, KindSQLite, KindMemory} {
		st, closer, err := Open(kind, dir, logging.Discard())
		if err != nil {
			t.Fatalf("Open(%q): %v", kind, err)
		}
		if err := st.Put(sampleCredentials()); err != nil {
			t.Errorf("Open(%q).Put: %v", kind, err)
		}
		closer.Close()
	}
	if _, err := os.Stat(filepath.Join(dir, SQLiteFileName)); err != nil {
		t.Errorf("sqlite database not created: %v", err)
	}

	if _, _, err := Open("redis", dir, logging.Discard()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), SQLiteFileName)
	b, err := NewSQLiteBackend(path, logging.Discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := New(b, logging.Discard()).Put(sampleCredentials()); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b.Close()

	b2, err := NewSQLiteBackend(path, logging.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b2.Close()
	got, err := New(b2, logging.Discard()).Get()
	if err != nil || got == nil || *got != sampleCredentials() {
		t.Errorf("Get after reopen = %+v, %v", got, err)
	}
}
