package mbl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{
			name:   "success",
			result: Result{ExitCode: 0},
			want:   true,
		},
		{
			name:   "non-zero exit",
			result: Result{ExitCode: 1},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.result.Success())
			assert.Equal(t, !tt.want, tt.result.Failed())
		})
	}
}

func TestDevice_DialAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		device Device
		want   string
	}{
		{"hostname only", Device{Hostname: "dev1"}, "dev1:22"},
		{"address wins", Device{Hostname: "dev1", Address: "10.0.0.5"}, "10.0.0.5:22"},
		{"custom port", Device{Address: "10.0.0.5", Port: 2222}, "10.0.0.5:2222"},
		{"ipv6", Device{Address: "fe80::1"}, "[fe80::1]:22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.device.DialAddress())
		})
	}
}

func TestDevice_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		device  Device
		wantErr bool
	}{
		{"valid", Device{Hostname: "dev1", Username: "root"}, false},
		{"missing host", Device{Username: "root"}, true},
		{"missing user", Device{Address: "10.0.0.5"}, true},
		{"bad port", Device{Address: "10.0.0.5", Username: "root", Port: 70000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.device.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  *Command
		want string
	}{
		{"raw script", NewCommand("ls /tmp | wc -l"), "ls /tmp | wc -l"},
		{"safe args", NewCommand("/opt/arm/pelion-provisioning-util", "--get-pelion-status"), "/opt/arm/pelion-provisioning-util --get-pelion-status"},
		{"spaces", NewCommand("echo", "hello world"), "echo 'hello world'"},
		{"single quote", NewCommand("echo", "don't"), `echo 'don'\''t'`},
		{"empty arg", NewCommand("printf", ""), "printf ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestCommand_Validate(t *testing.T) {
	t.Parallel()

	var nilCmd *Command

	require.Error(t, nilCmd.Validate())
	require.Error(t, NewCommand("  ").Validate())
	require.NoError(t, NewCommand("true").Validate())
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand(`cat "/var/log/my file.log"`)
	require.NoError(t, err)
	assert.Equal(t, "cat", cmd.Cmd)
	assert.Equal(t, []string{"/var/log/my file.log"}, cmd.Args)
	assert.Equal(t, "cat '/var/log/my file.log'", cmd.String())

	_, err = ParseCommand("   ")
	require.Error(t, err)
}

func TestCommandError_Message(t *testing.T) {
	t.Parallel()

	withStderr := NewCommandError("df", 7, []byte("disk full"))
	assert.Equal(t, 7, withStderr.ExitCode)
	assert.Equal(t, "disk full", withStderr.Message)
	assert.Equal(t, "disk full", withStderr.Error())

	generic := NewCommandError("df", 7, nil)
	assert.Equal(t, 7, generic.ExitCode)
	assert.Equal(t, DefaultCommandErrorMessage, generic.Error())
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("broken pipe")

	var transportErr error = &TransportError{Command: "uptime", Err: cause}
	require.ErrorIs(t, transportErr, cause)
	assert.Contains(t, transportErr.Error(), "uptime")
	assert.Contains(t, transportErr.Error(), "broken pipe")

	var connErr error = &ConnectionError{Address: "dev1:22", Attempts: 3, Err: cause}
	require.ErrorIs(t, connErr, cause)
	assert.Contains(t, connErr.Error(), "after 3 attempt(s)")

	var cmdErr *CommandError
	assert.False(t, errors.As(transportErr, &cmdErr), "transport failures are not command failures")
}
