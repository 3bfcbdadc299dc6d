package app

import (
	"context"
	"errors"

	"github.com/ruffel/mbl"
	"github.com/ruffel/mbl/inventory"
	"github.com/ruffel/mbl/providers/ssh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func loadInventory() (*inventory.Store, error) {
	path := viper.GetString("inventory")
	if path == "" {
		p, err := inventory.DefaultPath()
		if err != nil {
			return nil, err
		}

		path = p
	}

	return inventory.Load(path)
}

// resolveDevice turns --address into a Device, looking it up in the
// inventory first.
func resolveDevice() (mbl.Device, error) {
	address := viper.GetString("address")
	if address == "" {
		return mbl.Device{}, errors.New("no device given, use --address or set MBL_ADDRESS")
	}

	store, err := loadInventory()
	if err != nil {
		return mbl.Device{}, err
	}

	device, err := store.Resolve(address)
	if err != nil {
		return mbl.Device{}, err
	}

	if password := viper.GetString("password"); password != "" {
		device.Password = password
	}

	return device, nil
}

func sessionOptions() []ssh.Option {
	return []ssh.Option{
		ssh.WithRetry(viper.GetInt("retries"), viper.GetDuration("retry-interval")),
		ssh.WithLogger(logrus.NewEntry(logger)),
	}
}

func fileOptions(recursive bool) []mbl.FileOption {
	opts := []mbl.FileOption{mbl.WithQuiet(viper.GetBool("quiet"))}
	if recursive {
		opts = append(opts, mbl.WithRecursive())
	}

	return opts
}

// withDevice connects to the device named by the global flags and runs fn
// with the session, closing it afterwards.
func withDevice(ctx context.Context, fn func(mbl.Device, *ssh.Session) error) error {
	device, err := resolveDevice()
	if err != nil {
		return err
	}

	return ssh.WithSession(ctx, device, func(s *ssh.Session) error {
		return fn(device, s)
	}, sessionOptions()...)
}
