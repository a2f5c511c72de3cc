package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strconv"

	"golang.org/x/xerrors"

	"github.com/bemasher/bme280"
)

// Address is an I2C address written as hex in the device file.
type Address uint16

func (a Address) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("0x%02X", uint16(a))), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 7)
	if err != nil {
		return xerrors.Errorf("invalid address %q: %w", text, err)
	}
	*a = Address(v)
	return nil
}

type Device struct {
	Bus          string              `json:"bus"`
	Address      Address             `json:"address,omitempty"`
	Preset       string              `json:"preset,omitempty"`
	Compensation bme280.Compensation `json:"compensation"`
	Clamp        bool                `json:"clamp,omitempty"`
	StrictChipID *bool               `json:"strict_chip_id,omitempty"`
	Forced       bool                `json:"forced,omitempty"`
}

// Opts returns the driver options for the device.
func (dev Device) Opts() (bme280.Opts, error) {
	if _, err := bme280.Preset(dev.Preset); err != nil {
		return bme280.Opts{}, err
	}

	opts := bme280.DefaultOpts
	if dev.Address != 0 {
		opts.Address = uint16(dev.Address)
	}
	opts.Compensation = dev.Compensation
	opts.Clamp = dev.Clamp
	if dev.StrictChipID != nil {
		opts.StrictChipID = *dev.StrictChipID
	}
	return opts, nil
}

// Config maps device names to devices.
type Config map[string]Device

func (cfg *Config) Read(filename string) error {
	cfgBytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return xerrors.Errorf("ioutil.ReadFile: %w", err)
	}
	err = json.Unmarshal(cfgBytes, cfg)
	if err != nil {
		return xerrors.Errorf("json.Decode: %w", err)
	}

	for name, dev := range *cfg {
		if _, err := dev.Opts(); err != nil {
			return xerrors.Errorf("device %q: %w", name, err)
		}
	}

	return nil
}

func (cfg Config) Write(filename string) error {
	cfgBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return xerrors.Errorf("json.MarshalIndent: %w", err)
	}

	err = ioutil.WriteFile(filename, cfgBytes, 0600)
	if err != nil {
		return xerrors.Errorf("ioutil.WriteFile: %w", err)
	}

	return nil
}

// Reload reads the device file again. On error cfg is left unchanged.
func (cfg *Config) Reload(filename string) error {
	newCfg := Config{}
	err := newCfg.Read(filename)
	if err != nil {
		return xerrors.Errorf("newCfg.Read: %w", err)
	}

	*cfg = newCfg

	return nil
}

// exampleConfig is written when the device file does not exist.
func exampleConfig() Config {
	return Config{
		"indoor": Device{
			Bus:          "1",
			Address:      Address(bme280.DefaultAddress),
			Preset:       "weather",
			Compensation: bme280.IntegerCompensation,
			Forced:       true,
		},
	}
}
