package mbltest

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ruffel/mbl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPermissions = 0o600

// readRemote returns the content of a remote file.
func readRemote(t T, s mbl.Session, remotePath string) string {
	res, err := s.Run(t.Context(), mbl.NewCommand("cat", remotePath), mbl.WithCheck())
	require.NoError(t, err)

	return string(res.Stdout)
}

func writeLocal(t T, name, content string) string {
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	return p
}

type progressRecorder struct {
	mu    sync.Mutex
	sent  []int64
	total int64
}

func (r *progressRecorder) record(_ string, total, sent int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.sent = append(r.sent, sent)
}

//nolint:funlen,maintidx // Contract registration function; complexity comes from many test cases.
func fileContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryFilesystem,
			Name:        "put-failure-source-missing",
			Description: "Error returned when we try to put a non-existent local file",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "should-not-exist")
				src := filepath.Join(t.TempDir(), "this-file-really-does-not-exist-12345")

				require.Error(t, s.Put(t.Context(), src, dst))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-get-roundtrip",
			Description: "A file put on the device and fetched back is unchanged",
			Run: func(t T, s mbl.Session) {
				content := "hello world from mbl"
				dst := path.Join(remoteDir(t, s), "test.txt")

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "test.txt", content), dst))
				assert.Equal(t, content, readRemote(t, s, dst))

				back := filepath.Join(t.TempDir(), "back.txt")
				require.NoError(t, s.Get(t.Context(), dst, back))

				got, err := os.ReadFile(back)
				require.NoError(t, err)
				assert.Equal(t, content, string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-into-existing-directory",
			Description: "Putting onto an existing directory places the file inside it",
			Run: func(t T, s mbl.Session) {
				dir := remoteDir(t, s)

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "inside.txt", "inside"), dir))
				assert.Equal(t, "inside", readRemote(t, s, path.Join(dir, "inside.txt")))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-overwrite",
			Description: "Putting over an existing file replaces its content",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "overwrite.txt")

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "a.txt", "initial content that is longer"), dst))
				require.NoError(t, s.Put(t.Context(), writeLocal(t, "b.txt", "updated"), dst))
				assert.Equal(t, "updated", readRemote(t, s, dst))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-directory-requires-recursive",
			Description: "Putting a directory without WithRecursive fails",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "tree")

				require.Error(t, s.Put(t.Context(), t.TempDir(), dst))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-get-recursive-directory",
			Description: "A directory tree round trips with WithRecursive",
			Run: func(t T, s mbl.Session) {
				src := filepath.Join(t.TempDir(), "tree")
				require.NoError(t, os.MkdirAll(filepath.Join(src, "sub", "deeper"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(src, "root.txt"), []byte("root"), 0o644))
				require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "deeper", "leaf.txt"), []byte("leaf"), 0o644))

				dst := path.Join(remoteDir(t, s), "tree")
				require.NoError(t, s.Put(t.Context(), src, dst, mbl.WithRecursive()))
				assert.Equal(t, "leaf", readRemote(t, s, path.Join(dst, "sub", "deeper", "leaf.txt")))

				back := filepath.Join(t.TempDir(), "back")
				require.NoError(t, s.Get(t.Context(), dst, back, mbl.WithRecursive()))

				leaf, err := os.ReadFile(filepath.Join(back, "sub", "deeper", "leaf.txt"))
				require.NoError(t, err)
				assert.Equal(t, "leaf", string(leaf))

				root, err := os.ReadFile(filepath.Join(back, "root.txt"))
				require.NoError(t, err)
				assert.Equal(t, "root", string(root))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "get-overwrites-larger-file",
			Description: "Getting a smaller file over a larger existing local file must truncate, not leave stale data",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "small.txt")
				require.NoError(t, s.Put(t.Context(), writeLocal(t, "small.txt", "small"), dst))

				local := writeLocal(t, "local.txt", strings.Repeat("stale", 100))
				require.NoError(t, s.Get(t.Context(), dst, local))

				got, err := os.ReadFile(local)
				require.NoError(t, err)
				assert.Equal(t, "small", string(got))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "put-respects-permissions",
			Description: "Put file has the mode set by WithPermissions",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "perm.txt")

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "perm.txt", "perm"), dst, mbl.WithPermissions(testPermissions)))

				res, err := s.Run(t.Context(), mbl.NewCommand("stat", "-c", "%a", dst), mbl.WithCheck())
				require.NoError(t, err)
				assert.Equal(t, "600", strings.TrimSpace(string(res.Stdout)))
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "get-respects-permissions",
			Description: "Fetched file has the mode set by WithPermissions",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "perm.txt")
				require.NoError(t, s.Put(t.Context(), writeLocal(t, "perm.txt", "perm"), dst))

				local := filepath.Join(t.TempDir(), "perm.txt")
				require.NoError(t, s.Get(t.Context(), dst, local, mbl.WithPermissions(testPermissions)))

				info, err := os.Stat(local)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(testPermissions), info.Mode().Perm())
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "progress-reported",
			Description: "Progress starts at zero and ends at the file size",
			Run: func(t T, s mbl.Session) {
				content := strings.Repeat("x", 100*1024)
				dst := path.Join(remoteDir(t, s), "progress.bin")

				var rec progressRecorder

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "progress.bin", content), dst, mbl.WithProgress(rec.record)))

				require.NotEmpty(t, rec.sent)
				assert.Equal(t, int64(0), rec.sent[0])
				assert.Equal(t, int64(len(content)), rec.sent[len(rec.sent)-1])
				assert.Equal(t, int64(len(content)), rec.total)
			},
		},
		{
			Category:    CategoryFilesystem,
			Name:        "quiet-suppresses-progress",
			Description: "WithQuiet(true) silences the progress callback",
			Run: func(t T, s mbl.Session) {
				dst := path.Join(remoteDir(t, s), "quiet.txt")

				var rec progressRecorder

				require.NoError(t, s.Put(t.Context(), writeLocal(t, "quiet.txt", "quiet"), dst,
					mbl.WithProgress(rec.record), mbl.WithQuiet(true)))
				assert.Empty(t, rec.sent)
			},
		},
	}
}
