// Package provider defines the transport-neutral request shape and the
// [Transport] interface implemented by the native vendor client and the
// generic chat-completions client.
//
// A session selects one Transport when it is initialized and keeps it for
// its lifetime. Both transports produce content deltas as a pull-based
// sequence: the next network read happens only when the consumer asks for
// the next delta, and breaking out of the range loop releases the
// connection.
package provider
