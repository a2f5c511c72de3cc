package bme280

// DefaultAddress is the I2C address used when Opts.Address is zero.
const DefaultAddress uint16 = 0x77

// ChipID is the value of the id register on a BME280.
const ChipID byte = 0x60

const (
	regDigT1 byte = 0x88
	regDigT2 byte = 0x8A
	regDigT3 byte = 0x8C

	regDigP1 byte = 0x8E
	regDigP2 byte = 0x90
	regDigP3 byte = 0x92
	regDigP4 byte = 0x94
	regDigP5 byte = 0x96
	regDigP6 byte = 0x98
	regDigP7 byte = 0x9A
	regDigP8 byte = 0x9C
	regDigP9 byte = 0x9E

	regDigH1 byte = 0xA1
	regDigH2 byte = 0xE1
	regDigH3 byte = 0xE3
	regDigH4 byte = 0xE4 // H4[11:4]
	regDigH5 byte = 0xE5 // H4[3:0] and H5[3:0]
	regDigH6 byte = 0xE6 // H5[11:4]
	regDigH7 byte = 0xE7

	regChipID    byte = 0xD0
	regSoftReset byte = 0xE0

	regCtrlHum  byte = 0xF2
	regStatus   byte = 0xF3
	regCtrlMeas byte = 0xF4
	regConfig   byte = 0xF5

	regPressure    byte = 0xF7
	regTemperature byte = 0xFA
	regHumidity    byte = 0xFD
)

const (
	softResetCmd byte = 0xB6

	statusImUpdate  byte = 1 << 0 // NVM data being copied to image registers
	statusMeasuring byte = 1 << 3 // conversion running
)

// Sensor limits from the datasheet.
const (
	MinTemperature = -40.0 // °C
	MaxTemperature = 85.0  // °C
	MinPressure    = 300.0 // hPa
	MaxPressure    = 1100.0
	MinHumidity    = 0.0 // %RH
	MaxHumidity    = 100.0

	// Maximum current in µA while measuring each quantity.
	MaxCurrentTemperature = 325.0
	MaxCurrentPressure    = 720.0
	MaxCurrentHumidity    = 340.0

	// Measurement rate limits in Hz.
	MaxFrequency = 181.0
	MinFrequency = 23.1
)
