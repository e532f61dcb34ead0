package protocol

import (
	"errors"
	"io"
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameSnapshot FrameType = 0x01 // Full tree
	FramePatches  FrameType = 0x02 // Patch batch
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameSnapshot:
		return "Snapshot"
	case FramePatches:
		return "Patches"
	default:
		return "Unknown"
	}
}

// ErrInvalidFrameType is returned for unknown frame types.
var ErrInvalidFrameType = errors.New("protocol: invalid frame type")

// Frame is one protocol message.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Encode returns the frame's wire bytes.
func (f *Frame) Encode() []byte {
	buf := make([]byte, 1+len(f.Payload))
	buf[0] = byte(f.Type)
	copy(buf[1:], f.Payload)
	return buf
}

// DecodeFrame splits wire bytes into a frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < 1 {
		return nil, io.ErrUnexpectedEOF
	}
	ft := FrameType(data[0])
	if ft != FrameSnapshot && ft != FramePatches {
		return nil, ErrInvalidFrameType
	}
	payload := make([]byte, len(data)-1)
	copy(payload, data[1:])
	return &Frame{Type: ft, Payload: payload}, nil
}

// Snapshot is the full state of an observed tree.
type Snapshot struct {
	Seq  uint64
	HTML string
	IDs  []uint64
}

// EncodeSnapshot encodes a snapshot frame.
func EncodeSnapshot(s *Snapshot) []byte {
	e := NewEncoder()
	e.WriteByte(byte(FrameSnapshot))
	e.WriteUvarint(s.Seq)
	e.WriteString(s.HTML)
	e.WriteIDs(s.IDs)
	return e.Bytes()
}

// DecodeSnapshot decodes a snapshot payload.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	d := NewDecoder(payload)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	html, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	ids, err := d.ReadIDs()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Seq: seq, HTML: html, IDs: ids}, nil
}
