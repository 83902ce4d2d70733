package protocol

import "bytes"

// Greeting is the registration datagram a consumer sends to the producer.
var Greeting = []byte("HELLO")

// IsGreeting reports whether data is the registration greeting. Surrounding
// ASCII whitespace (e.g. a trailing newline from netcat) is tolerated.
func IsGreeting(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), Greeting)
}
