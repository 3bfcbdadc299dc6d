package actions

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ruffel/mbl"
	mblmock "github.com/ruffel/mbl/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func statusCommand(c *mbl.Command) bool {
	return c.Cmd == ProvisioningUtilPath && len(c.Args) == 1 && c.Args[0] == "--get-pelion-status"
}

func TestPelionStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	transport := &mbl.TransportError{Command: ProvisioningUtilPath, Err: errors.New("connection reset")}

	tests := []struct {
		name       string
		output     string
		runErr     error
		wantConfig bool
		wantErr    error
	}{
		{
			name:   "Provisioned",
			output: "Device is configured correctly. You can connect to Pelion Cloud!\n",
		},
		{
			name:       "NotProvisioned",
			output:     "Error: no certificates found\n",
			runErr:     mbl.NewCommandError(ProvisioningUtilPath, 1, []byte("no certificates found\n")),
			wantConfig: true,
		},
		{
			name:    "TransportFailure",
			runErr:  transport,
			wantErr: transport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := mblmock.New()
			s.On("Run", ctx, mock.MatchedBy(statusCommand), mock.MatchedBy(func(c mbl.RunConfig) bool {
				return c.Check && c.Writeout != nil
			})).Run(mblmock.WriteOutput(tt.output)).Return(&mbl.Result{}, tt.runErr)

			var out bytes.Buffer

			err := PelionStatus(ctx, mbl.NewExecutor(s), &out)

			assert.Equal(t, tt.output, out.String())

			switch {
			case tt.wantConfig:
				var cfgErr *ConfigurationError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, NotProvisionedMessage, cfgErr.Error())
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}

			s.AssertExpectations(t)
		})
	}
}
