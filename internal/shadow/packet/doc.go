// Package packet holds the versioned shadow packet layouts exchanged with
// the RE radiator and dispatches decoding on the header type field.
//
// Every packet starts with the same 15-byte header:
//
//	clientToken:u32  timestamp:u32  version:u32  length:u16  type:u8
//
// The type selects the full layout:
//
//	0 header          header only (probe / GET request)      15 bytes
//	1 reported-v1     header + RW v1 + R v1                 254 bytes
//	2 desired-v1      header + RW v1                        220 bytes
//	3 connection      header + connected:u8                  16 bytes
//	4 reported-v2     header + RW v1 + RW v2 + R v1 + R v2  706 bytes
//	5 desired-v2      header + RW v1 + RW v2                530 bytes
//
// There is no negotiation and no tolerance for unknown trailing fields:
// sender and receiver must agree on the exact packet type version.
package packet
