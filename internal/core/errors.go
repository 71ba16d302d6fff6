// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers match them with errors.Is.
var (
	// Builder errors
	ErrInvalidByteString  = errors.New("csumlab: invalid byte string")
	ErrInvalidLength      = errors.New("csumlab: invalid payload length")
	ErrUnknownCombination = errors.New("csumlab: unknown protocol combination")
	ErrIndexOutOfRange    = errors.New("csumlab: byte index out of range")
	ErrFieldDisabled      = errors.New("csumlab: field is disabled")

	// Checksum errors
	ErrInvalidHeaderLength = errors.New("csumlab: invalid header length")
	ErrIncompleteHeader    = errors.New("csumlab: incomplete header data")

	// Delta errors
	ErrLengthMismatch = errors.New("csumlab: packet data lengths do not match")

	// Frame import errors
	ErrUnsupportedFrame = errors.New("csumlab: unsupported frame")
)
