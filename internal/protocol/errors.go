// internal/protocol/errors.go
package protocol

import "errors"

// Error taxonomy shared by client, server and registry.
// Callers wrap these with fmt.Errorf("...: %w") and match with errors.Is.
var (
	// ErrConnectFailure: the client could not establish the TCP connection.
	ErrConnectFailure = errors.New("connect failure")

	// ErrSendFailure: the record write after connect failed.
	ErrSendFailure = errors.New("send failure")

	// ErrMalformedRecord: a payload decoded under neither the binary nor the textual layout.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrReplyWrite: the server could not deliver its 2-byte reply.
	ErrReplyWrite = errors.New("reply write failure")

	// ErrPersistence: the durable machine id counter could not be written.
	// An id that was not persisted is never handed out.
	ErrPersistence = errors.New("persistence failure")
)
