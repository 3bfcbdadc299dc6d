// Package ssh implements mbl.Session for devices reachable over SSH.
//
// It uses "golang.org/x/crypto/ssh" for the connection and
// "github.com/pkg/sftp" for file transfers, and provides:
//   - Connection retry with a fixed pause between attempts
//   - Key, password and unauthenticated ("none") logins
//   - Trust-on-first-use host keys persisted to known_hosts
//   - Command execution with captured and streamed output
//   - File transfers (Put/Get) over an sftp sub-session
//   - Interactive shells on a remote pty
//
// Usage:
//
//	device := mbl.Device{Address: "192.168.1.20", Username: "root"}
//	err := ssh.WithSession(ctx, device, func(s *ssh.Session) error {
//		_, err := s.Run(ctx, mbl.NewCommand("uname", "-a"), mbl.WithCheck(), mbl.WithWriteout(os.Stdout))
//		return err
//	})
package ssh
