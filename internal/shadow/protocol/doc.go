// Package protocol routes RE device-shadow messages over a publish/subscribe
// transport.
//
// Every message lives under the device's shadow base topic:
//
//	re/things/{device}/shadow/get
//	re/things/{device}/shadow/get/accepted
//	re/things/{device}/shadow/desired-update/rejected
//	re/things/{device}/shadow/reported-update
//
// A Protocol subscribes once to {base}/# and demultiplexes by re-parsing
// each inbound topic. Payloads are binary packets from package packet.
// Inbound frames that fail to parse or decode are logged and dropped so one
// malformed publish cannot stall a test run.
package protocol
