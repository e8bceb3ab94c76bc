// internal/status/constants.go
package status

// Machine Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per machine.
// The block of machine N starts at register N*SlotsPerDevice.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the machine health state.
const SlotHealthCode = 0

// SlotDeviceKind holds the device kind the machine last reported.
const SlotDeviceKind = 1

// SlotRecordsStart is the first of two slots holding the record count (uint32, big-endian word order).
const SlotRecordsStart = 2

// SlotBytesStart is the first of four slots holding the received byte total (uint64, big-endian word order).
const SlotBytesStart = 4

// SlotLastElapsedMs holds the last receive latency in milliseconds.
const SlotLastElapsedMs = 8

// ---- RESERVED RANGE ----

// Slots 9–10 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the machine label.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the machine label.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the machine label (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the label.
const DeviceNameMaxChars = 16

// ElapsedUnknown is written to SlotLastElapsedMs when no reliable sample exists.
const ElapsedUnknown uint16 = 0xFFFF

// ---- HEALTH CODES ----

// HealthUnknown represents a machine not heard from since startup.
const HealthUnknown uint16 = 0

// HealthOK represents a machine whose last record was acknowledged.
const HealthOK uint16 = 1

// HealthError represents a machine sending under an id this collector never issued.
const HealthError uint16 = 2
