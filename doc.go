// Package bme280 drives a Bosch BME280 temperature, humidity and pressure
// sensor over a register oriented bus such as I2C.
//
// The driver reads the factory calibration once at connect time and turns
// raw ADC samples into °C, %RH and hPa using either the integer or the
// floating point formulas from the datasheet.
//
// Datasheet:
// https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme280-ds002.pdf
//
// The transport is abstracted by Conn; package bus provides implementations
// on top of periph.io and embd.
package bme280
