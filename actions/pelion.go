package actions

import (
	"context"
	"errors"
	"io"

	"github.com/ruffel/mbl"
)

// ProvisioningUtilPath is the on-device tool that reports provisioning state.
const ProvisioningUtilPath = "/opt/arm/pelion-provisioning-util"

// NotProvisionedMessage is the guidance given when the provisioning check fails.
const NotProvisionedMessage = "Your device is not correctly configured for Pelion Device Management. " +
	"You must provision your device using the provision-pelion command."

// ConfigurationError reports a device that is reachable but not set up for
// the requested operation.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// PelionStatus runs the provisioning utility on the device, streaming its
// report to out. A failing check becomes a *ConfigurationError. Transport
// failures are returned unchanged.
func PelionStatus(ctx context.Context, exec *mbl.Executor, out io.Writer) error {
	cmd := mbl.Cmd(ProvisioningUtilPath).Arg("--get-pelion-status").Build()

	_, err := exec.Run(ctx, cmd, mbl.WithCheck(), mbl.WithWriteout(out))

	var cmdErr *mbl.CommandError
	if errors.As(err, &cmdErr) {
		return &ConfigurationError{Message: NotProvisionedMessage}
	}

	return err
}
