package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

func collect(t *testing.T, c *Connector) ([]string, error) {
	t.Helper()
	paths, errs := c.Scan(context.Background())
	var got []string
	for p := range paths {
		got = append(got, p)
	}
	var scanErr error
	for err := range errs {
		scanErr = err
	}
	return got, scanErr
}

func TestNew(t *testing.T) {
	t.Run("creates connector with root path", func(t *testing.T) {
		connector := New("/tmp/test")

		require.NotNil(t, connector)
		assert.Equal(t, "/tmp/test", connector.Root())
		assert.Equal(t, "filesystem", connector.Type())
	})

	t.Run("implements Connector interface", func(t *testing.T) {
		var _ driven.Connector = New("/tmp")
	})
}

func TestConnector_Validate(t *testing.T) {
	t.Run("accepts existing directory", func(t *testing.T) {
		assert.NoError(t, New(t.TempDir()).Validate(context.Background()))
	})

	t.Run("rejects missing directory", func(t *testing.T) {
		err := New("/non/existent/path").Validate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("rejects regular file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "a.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		err := New(file).Validate(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConnector_Scan(t *testing.T) {
	t.Run("walks recursively in lexical order", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deeper"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.txt"), []byte("c"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deeper", "d.txt"), []byte("d"), 0o644))

		got, err := collect(t, New(dir))
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(dir, "a.md"),
			filepath.Join(dir, "b.txt"),
			filepath.Join(dir, "sub", "c.txt"),
			filepath.Join(dir, "sub", "deeper", "d.txt"),
		}, got)
	})

	t.Run("skips hidden files and directories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644))

		got, err := collect(t, New(dir))
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(dir, "visible.txt")}, got)
	})

	t.Run("empty directory yields nothing", func(t *testing.T) {
		got, err := collect(t, New(t.TempDir()))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("reports missing root", func(t *testing.T) {
		got, err := collect(t, New("/non/existent/path"))
		require.Error(t, err)
		assert.Empty(t, got)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
		}

		ctx, cancel := context.WithCancel(context.Background())
		paths, errs := New(dir).Scan(ctx)
		<-paths
		cancel()

		for range paths {
		}
		var scanErr error
		for err := range errs {
			scanErr = err
		}
		if scanErr != nil {
			assert.True(t, errors.Is(scanErr, context.Canceled))
		}
	})
}

func TestConnector_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		dir := t.TempDir()
		connector := New(dir)
		defer connector.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		changes, err := connector.Watch(ctx)
		require.NoError(t, err)

		target := filepath.Join(dir, "new.txt")
		require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

		for {
			select {
			case change, ok := <-changes:
				require.True(t, ok, "channel closed before create event")
				if change.Type == domain.ChangeCreated {
					assert.Equal(t, target, change.Path)
					return
				}
			case <-ctx.Done():
				t.Fatal("timed out waiting for create event")
			}
		}
	})

	t.Run("closes channel on context cancel", func(t *testing.T) {
		connector := New(t.TempDir())
		defer connector.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := connector.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			for ok {
				_, ok = <-changes
			}
		case <-time.After(2 * time.Second):
			t.Fatal("channel not closed after cancel")
		}
	})

	t.Run("fails after close", func(t *testing.T) {
		connector := New(t.TempDir())
		require.NoError(t, connector.Close())

		_, err := connector.Watch(context.Background())
		assert.ErrorIs(t, err, driven.ErrConnectorClosed)
	})

	t.Run("fails for missing root", func(t *testing.T) {
		_, err := New("/non/existent/path").Watch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})
}

func TestConnector_Close(t *testing.T) {
	connector := New(t.TempDir())
	_, err := connector.Watch(context.Background())
	require.NoError(t, err)

	assert.NoError(t, connector.Close())
	assert.NoError(t, connector.Close())
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".hidden", true},
		{".git/config", true},
		{"dir/.hidden/file.txt", true},
		{"visible.txt", false},
		{"dir/file.txt", false},
		{".", false},
		{"..", false},
		{"../file.txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isHidden(tt.path))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	subdir := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	connector := New(dir)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  *domain.FileChange
	}{
		{
			name:  "create file",
			event: fsnotify.Event{Name: file, Op: fsnotify.Create},
			want:  &domain.FileChange{Path: file, Type: domain.ChangeCreated},
		},
		{
			name:  "create directory ignored",
			event: fsnotify.Event{Name: subdir, Op: fsnotify.Create},
		},
		{
			name:  "create vanished file ignored",
			event: fsnotify.Event{Name: filepath.Join(dir, "gone.txt"), Op: fsnotify.Create},
		},
		{
			name:  "write",
			event: fsnotify.Event{Name: file, Op: fsnotify.Write},
			want:  &domain.FileChange{Path: file, Type: domain.ChangeUpdated},
		},
		{
			name:  "remove",
			event: fsnotify.Event{Name: file, Op: fsnotify.Remove},
			want:  &domain.FileChange{Path: file, Type: domain.ChangeDeleted},
		},
		{
			name:  "rename",
			event: fsnotify.Event{Name: file, Op: fsnotify.Rename},
			want:  &domain.FileChange{Path: file, Type: domain.ChangeDeleted},
		},
		{
			name:  "chmod ignored",
			event: fsnotify.Event{Name: file, Op: fsnotify.Chmod},
		},
		{
			name:  "hidden file ignored",
			event: fsnotify.Event{Name: filepath.Join(dir, ".swp"), Op: fsnotify.Write},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connector.handleFsEvent(tt.event))
		})
	}
}
