// Package bus connects the driver to an I2C host library.
//
// Periph uses periph.io and works on any Linux host with /dev/i2c-N. Embd
// uses github.com/kidoman/embd, the caller must import an embd host package
// (e.g. github.com/kidoman/embd/host/all) and call embd.InitI2C first.
package bus
