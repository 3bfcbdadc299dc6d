package ssh

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ruffel/mbl"
	"golang.org/x/crypto/ssh"
)

// Run executes cmd on the device and waits for it to finish.
//
// stdout and stderr are always captured into the Result. With
// mbl.WithWriteout every line is also written to the writer as it arrives.
// A non-zero exit code is only an error when mbl.WithCheck is given.
func (s *Session) Run(ctx context.Context, cmd *mbl.Command, opts ...mbl.RunOption) (*mbl.Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	cfg := mbl.NewRunConfig(opts...)
	cmd = mbl.ApplySudo(cmd, cfg.SudoConfig)
	fullCommand := buildFullCommand(cmd)

	c, err := s.conn()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = s.config.CommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := c.NewSession()
	if err != nil {
		return nil, &mbl.TransportError{Command: fullCommand, Err: err}
	}

	defer func() { _ = session.Close() }()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, &mbl.TransportError{Command: fullCommand, Err: err}
	}

	stderr, err := session.StderrPipe()
	if err != nil {
		return nil, &mbl.TransportError{Command: fullCommand, Err: err}
	}

	s.log.Debugf("running %s", fullCommand)

	startTime := time.Now()

	if err := session.Start(fullCommand); err != nil {
		return nil, &mbl.TransportError{Command: fullCommand, Err: err}
	}

	// Kill the remote process if the context expires first.
	doneCheck := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = session.Signal(ssh.SIGKILL)
			_ = session.Close()
		case <-doneCheck:
		}
	}()

	var (
		outBuf, errBuf bytes.Buffer
		wg             sync.WaitGroup
	)

	out := &lineWriter{w: cfg.Writeout}

	wg.Add(2)

	go func() {
		defer wg.Done()
		drain(stdout, &outBuf, out)
	}()

	go func() {
		defer wg.Done()
		drain(stderr, &errBuf, out)
	}()

	wg.Wait()

	err = session.Wait()

	close(doneCheck)

	result := &mbl.Result{
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
		Duration: time.Since(startTime),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, &mbl.TransportError{Command: fullCommand, Err: fmt.Errorf("command aborted: %w", ctxErr)}
	}

	if err != nil {
		var exitErr interface{ ExitStatus() int }
		if !errors.As(err, &exitErr) {
			return result, &mbl.TransportError{Command: fullCommand, Err: err}
		}

		result.ExitCode = exitErr.ExitStatus()
	}

	if cfg.Check && result.ExitCode != 0 {
		return result, mbl.NewCommandError(fullCommand, result.ExitCode, result.Stderr)
	}

	return result, nil
}

// drain copies r into buf line by line, echoing each line to out.
func drain(r io.Reader, buf *bytes.Buffer, out *lineWriter) {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			buf.Write(line)
			out.writeLine(line)
		}

		if err != nil {
			return
		}
	}
}

// lineWriter serialises whole lines from the stdout and stderr drains onto
// one writer. Write errors are ignored so a broken writer cannot stall the
// remote command.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(line []byte) {
	if l.w == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = l.w.Write(line)
}
