// Package protocol implements the binary wire format used to stream keyed
// region updates to browsers.
//
// # Wire Format
//
// Every WebSocket message is one frame: a type byte followed by the
// payload.
//
//   - FrameSnapshot (0x01): the full rendered tree and its node ids
//   - FramePatches (0x02): an ordered batch of Insert, Move and Remove
//     patches
//
// # Encoding
//
//   - Varint: node ids, sequence numbers and counts (protobuf-style)
//   - Length-prefixed: strings, prefixed with a varint length
//
// # Node Addressing
//
// Nodes are addressed by their dom ids. A snapshot and every Insert patch
// carry the ids of the nodes their HTML describes, in pre-order, so a
// client parsing the HTML can rebuild the id table. Split-text markers
// (<!--@@-->) are not nodes and take no id.
//
// Example Move patch encoding:
//
//	[Op: 0x02][Node: varint][Parent: varint][Prev: varint]
//	Total: ~4 bytes
package protocol
