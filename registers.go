package a1335

// Normal register map (8-bit address, 16-bit value, addressed directly).
const (
	RegEWA   byte = 0x02 // extended write address
	RegEWD   byte = 0x04 // extended write data
	RegEWCS  byte = 0x08 // extended write control and status
	RegERA   byte = 0x0A // extended read address
	RegERCS  byte = 0x0C // extended read control and status
	RegERD   byte = 0x0E // extended read data
	RegCTRL  byte = 0x1E // device control, keycode register at 0x1F
	RegANG   byte = 0x20 // current angle and related flags
	RegSTA   byte = 0x22 // device status
	RegERR   byte = 0x24 // device error status
	RegXERR  byte = 0x26 // extended error status
	RegTSEN  byte = 0x28 // temperature sensor data
	RegFIELD byte = 0x2A // magnetic field strength
	RegERM   byte = 0x34 // device error status masking
	RegXERM  byte = 0x36 // extended error status masking
)

// Extended register map (16-bit address, 32-bit value, reached through the
// EWA/ERA gateway registers).
const (
	RegORATE uint16 = 0xFFD0 // output rate, log2 of the sample rate
)

// Control keycode pairs. The high byte lands in CTRL (0x1E), the low byte
// is the keycode in 0x1F; both go out in a single normal write.
const (
	ctrlIdle      uint16 = 0x8046 // enter idle mode
	ctrlRun       uint16 = 0xC046 // enter run mode
	ctrlHardReset uint16 = 0x20B9
	ctrlSoftReset uint16 = 0x10B9
	ctrlClearSTA  uint16 = 0x0446 // clear status registers
	ctrlClearXERR uint16 = 0x0246 // clear extended error registers
	ctrlClearERR  uint16 = 0x0146 // clear error registers
)

// Angle register (ANG) fields. Fields never overlap; masking and shifting
// recovers a field without contamination from its neighbours.
const (
	angIDMask    uint16 = 0x8000 // register identifier, always 0
	angErrorFlag uint16 = 0x4000 // at least one error latched in ERR
	angNewFlag   uint16 = 0x2000 // a new angle is in the register
	angParityBit uint16 = 0x1000 // odd parity over the whole register
	angValueMask uint16 = 0x0FFF // angle code, n * 360/4096 degrees
)

// Status register (STA) fields.
const (
	staIDMask     uint16 = 0xF000 // register identifier, always 1000
	staPORFlag    uint16 = 0x0800 // power-on reset since last clear
	staSRFlag     uint16 = 0x0400 // soft reset since last clear
	staNewFlag    uint16 = 0x0200 // a new angle is in the angle register
	staErrorFlag  uint16 = 0x0100 // at least one error latched in ERR
	staStatusMask uint16 = 0x00F0 // processing status nibble
	staPhaseMask  uint16 = 0x000F // processing phase nibble
)

// Temperature (TSEN) and field strength (FIELD) registers share one
// layout: a 4-bit register identifier prefix over a 12-bit reading.
const (
	tsenIDMask     uint16 = 0xF000 // always 1111
	tsenValueMask  uint16 = 0x0FFF // n / 8 = temperature in K
	fieldIDMask    uint16 = 0xF000 // always 1110
	fieldValueMask uint16 = 0x0FFF // n = field strength in gauss (1/10000 T)
)

// Extended register transactions carry a confirmation byte after the
// address (and payload, for writes).
const extConfirm byte = 0x80

// Confirmation status the device reports back after an extended write.
const extWriteConfirmed byte = 0x01
