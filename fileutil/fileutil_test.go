package fileutil

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPathTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		root      string
		target    string
		expectErr bool
	}{
		{
			name:      "Safe child",
			root:      "/tmp/safe",
			target:    "/tmp/safe/child.txt",
			expectErr: false,
		},
		{
			name:      "Safe deep child",
			root:      "/tmp/safe",
			target:    "/tmp/safe/dir/child.txt",
			expectErr: false,
		},
		{
			name:      "Root itself",
			root:      "/tmp/safe",
			target:    "/tmp/safe",
			expectErr: false,
		},
		{
			name:      "Traversal attempt",
			root:      "/tmp/safe",
			target:    "/tmp/safe/../evil.txt",
			expectErr: true,
		},
		{
			name:      "Direct parent traversal",
			root:      "/tmp/safe",
			target:    "/tmp/evil.txt",
			expectErr: true,
		},
		{
			name:      "Root prefix but not child",
			root:      "/tmp/safe",
			target:    "/tmp/safe_suffix_is_not_child",
			expectErr: true,
		},
		{
			name:      "Relative paths safe",
			root:      "safe",
			target:    "safe/child",
			expectErr: false,
		},
		{
			name:      "Relative paths unsafe",
			root:      "safe",
			target:    "safe/../evil",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Normalize for OS (Windows vs Unix)
			root := filepath.FromSlash(tt.root)
			target := filepath.FromSlash(tt.target)

			err := CheckPathTraversal(root, target)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "illegal file path")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRemoteRel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		root      string
		target    string
		want      string
		expectErr bool
	}{
		{
			name:   "Safe child",
			root:   "/home/user/data",
			target: "/home/user/data/subdir/file.txt",
			want:   "subdir/file.txt",
		},
		{
			name:   "Root itself",
			root:   "/home/user/data",
			target: "/home/user/data",
			want:   "",
		},
		{
			name:      "Traversal attempt",
			root:      "/home/user/data",
			target:    "/home/user/data/../evil.txt",
			expectErr: true,
		},
		{
			name:      "Root prefix but not child",
			root:      "/home/user/data",
			target:    "/home/user/datapath/file.txt",
			expectErr: true,
		},
		{
			name:   "Trailing slash root",
			root:   "/home/user/data/",
			target: "/home/user/data/file.txt",
			want:   "file.txt",
		},
		{
			name:   "Filesystem root",
			root:   "/",
			target: "/etc/passwd",
			want:   "etc/passwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rel, err := RemoteRel(tt.root, tt.target)
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "illegal remote file path")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, rel)
		})
	}
}

func TestProgressReader(t *testing.T) {
	t.Parallel()

	var calls [][2]int64

	fn := func(name string, total, sent int64) {
		assert.Equal(t, "blob", name)
		calls = append(calls, [2]int64{total, sent})
	}

	pr := NewProgressReader(iotest.OneByteReader(strings.NewReader("abc")), "blob", 3, fn)

	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, [][2]int64{{3, 0}, {3, 1}, {3, 2}, {3, 3}}, calls)
}

func TestContextReader(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cr := &ContextReader{Ctx: ctx, Reader: strings.NewReader("data")}

	buf := make([]byte, 2)
	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cancel()

	_, err = cr.Read(buf)
	require.ErrorIs(t, err, context.Canceled)
}
