// internal/protocol/constants.go
package protocol

// Wire constants. These values define the protocol and MUST NOT be configurable.

// DefaultPort is the TCP port the collector listens on unless configured otherwise.
const DefaultPort = 29482

// RecordSize is the exact length of a binary-encoded sensor record.
const RecordSize = 63

// MaxPayload is the size of the single read the server performs per connection.
const MaxPayload = 1024

// ReplySize is the length of every server reply.
const ReplySize = 2

// MinBacklog is the smallest listen backlog the server accepts.
const MinBacklog = 1000

// UnassignedMachineID is the sentinel a client sends before it owns an identity.
const UnassignedMachineID uint8 = 0
