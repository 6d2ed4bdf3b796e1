// Package capture implements the tester side of the SUT handshake.
package capture

// The SUT announces itself with a single Start byte. Any other byte seen
// before it is line noise and is dropped. The tester answers with exactly
// one Ack and then stores every byte up to End into a bounded Buffer.
//
// Control bytes are ASCII ENQ/ACK/EOT. Once capturing, only End is
// special: Start and Ack values are stored as payload.
//
// Producer: SUT firmware
// Consumer: tester
