package ssh

import (
	"context"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"

	"github.com/pkg/sftp"
	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/fileutil"
)

// withTransfer opens a transfer sub-session (an SSH session running the sftp
// subsystem), passes it to fn and closes it again however fn returns.
func (s *Session) withTransfer(ctx context.Context, fn func(*sftp.Client) error) error {
	c, err := s.conn()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := c.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open transfer session: %w", err)
	}

	defer func() { _ = session.Close() }()

	w, err := session.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open transfer session: %w", err)
	}

	r, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open transfer session: %w", err)
	}

	if err := session.RequestSubsystem("sftp"); err != nil {
		return fmt.Errorf("failed to start sftp subsystem: %w", err)
	}

	client, err := sftp.NewClientPipe(r, w)
	if err != nil {
		return fmt.Errorf("failed to create sftp client: %w", err)
	}

	defer func() { _ = client.Close() }()

	return fn(client)
}

// Put copies a local file or directory to remotePath on the device.
// If remotePath is an existing directory the source is placed inside it.
func (s *Session) Put(ctx context.Context, localPath, remotePath string, opts ...mbl.FileOption) error {
	cfg := mbl.NewFileConfig(opts...)

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}

	if info.IsDir() && !cfg.Recursive {
		return fmt.Errorf("%s is a directory (not copied, recursive transfer not requested)", localPath)
	}

	s.log.Debugf("put %s -> %s", localPath, remotePath)

	return s.withTransfer(ctx, func(client *sftp.Client) error {
		if remoteInfo, err := client.Stat(remotePath); err == nil && remoteInfo.IsDir() {
			remotePath = pathpkg.Join(remotePath, filepath.Base(localPath))
		}

		if info.IsDir() {
			return uploadDir(ctx, client, localPath, remotePath, cfg)
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return uploadFile(ctx, client, localPath, remotePath, mode, cfg.Reporter())
	})
}

func uploadDir(ctx context.Context, client *sftp.Client, localBase, remoteBase string, cfg mbl.FileConfig) error {
	return filepath.Walk(localBase, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(localBase, path)
		if err != nil {
			return err
		}

		remotePath := pathpkg.Join(remoteBase, filepath.ToSlash(relPath))

		if info.IsDir() {
			if err := client.MkdirAll(remotePath); err != nil {
				return fmt.Errorf("failed to create remote directory %q: %w", remotePath, err)
			}

			if cfg.Permissions != 0 {
				_ = client.Chmod(remotePath, cfg.Permissions)
			}

			return nil
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return uploadFile(ctx, client, path, remotePath, mode, cfg.Reporter())
	})
}

func uploadFile(ctx context.Context, client *sftp.Client, localPath, remotePath string, mode os.FileMode, progress mbl.ProgressFunc) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := client.Chmod(remotePath, mode.Perm()); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", err)
	}

	reader := fileutil.NewProgressReader(&fileutil.ContextReader{Ctx: ctx, Reader: src}, filepath.Base(localPath), size, progress)

	if _, err := io.Copy(dst, reader); err != nil {
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	return nil
}

// Get copies a remote file or directory to localPath.
// If localPath is an existing directory the source is placed inside it.
func (s *Session) Get(ctx context.Context, remotePath, localPath string, opts ...mbl.FileOption) error {
	cfg := mbl.NewFileConfig(opts...)

	s.log.Debugf("get %s -> %s", remotePath, localPath)

	return s.withTransfer(ctx, func(client *sftp.Client) error {
		info, err := client.Stat(remotePath)
		if err != nil {
			return err
		}

		if info.IsDir() && !cfg.Recursive {
			return fmt.Errorf("%s is a directory (not copied, recursive transfer not requested)", remotePath)
		}

		if localInfo, err := os.Stat(localPath); err == nil && localInfo.IsDir() {
			localPath = filepath.Join(localPath, pathpkg.Base(remotePath))
		}

		if info.IsDir() {
			return downloadDir(ctx, client, remotePath, localPath, cfg)
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		return downloadFile(ctx, client, remotePath, localPath, mode, cfg.Reporter())
	})
}

func downloadDir(ctx context.Context, client *sftp.Client, remoteBase, localBase string, cfg mbl.FileConfig) error {
	walker := client.Walk(remoteBase)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}

		path := walker.Path()

		relPath, err := fileutil.RemoteRel(remoteBase, path)
		if err != nil {
			return err
		}

		localPath := filepath.Join(localBase, filepath.FromSlash(relPath))
		if err := fileutil.CheckPathTraversal(localBase, localPath); err != nil {
			return err
		}

		info := walker.Stat()

		if info.IsDir() {
			if err := os.MkdirAll(localPath, 0o755); err != nil {
				return err
			}

			continue
		}

		mode := info.Mode()
		if cfg.Permissions != 0 {
			mode = cfg.Permissions
		}

		if err := downloadFile(ctx, client, path, localPath, mode, cfg.Reporter()); err != nil {
			return err
		}
	}

	return nil
}

func downloadFile(ctx context.Context, client *sftp.Client, remotePath, localPath string, mode os.FileMode, progress mbl.ProgressFunc) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	src, err := client.Open(remotePath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	// os.Create is subject to umask; chmod explicitly.
	if err := os.Chmod(localPath, mode.Perm()); err != nil {
		return fmt.Errorf("failed to chmod local file: %w", err)
	}

	reader := fileutil.NewProgressReader(&fileutil.ContextReader{Ctx: ctx, Reader: src}, pathpkg.Base(remotePath), size, progress)

	if _, err := io.Copy(dst, reader); err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}

	return nil
}
