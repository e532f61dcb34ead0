package protocol

import "fmt"

// PatchOp is the type of patch operation.
type PatchOp uint8

// Patch operation constants.
const (
	PatchInsert PatchOp = 0x01 // Insert new node
	PatchMove   PatchOp = 0x02 // Move node
	PatchRemove PatchOp = 0x03 // Remove node
)

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case PatchInsert:
		return "Insert"
	case PatchMove:
		return "Move"
	case PatchRemove:
		return "Remove"
	default:
		return fmt.Sprintf("PatchOp(%d)", uint8(op))
	}
}

// Patch is a single tree mutation. PrevID 0 places the node first in its
// parent.
type Patch struct {
	Op       PatchOp
	NodeID   uint64
	ParentID uint64
	PrevID   uint64

	// Insert only.
	HTML string
	IDs  []uint64
}

// String returns a compact description, used by the replay output.
func (p Patch) String() string {
	switch p.Op {
	case PatchInsert:
		return fmt.Sprintf("insert #%d into #%d after #%d: %s", p.NodeID, p.ParentID, p.PrevID, p.HTML)
	case PatchMove:
		return fmt.Sprintf("move #%d into #%d after #%d", p.NodeID, p.ParentID, p.PrevID)
	case PatchRemove:
		return fmt.Sprintf("remove #%d", p.NodeID)
	default:
		return p.Op.String()
	}
}

// PatchesFrame is a batch of patches applied in order.
type PatchesFrame struct {
	Seq     uint64
	Patches []Patch
}

// NewInsertPatch creates an Insert patch.
func NewInsertPatch(id, parentID, prevID uint64, html string, ids []uint64) Patch {
	return Patch{Op: PatchInsert, NodeID: id, ParentID: parentID, PrevID: prevID, HTML: html, IDs: ids}
}

// NewMovePatch creates a Move patch.
func NewMovePatch(id, parentID, prevID uint64) Patch {
	return Patch{Op: PatchMove, NodeID: id, ParentID: parentID, PrevID: prevID}
}

// NewRemovePatch creates a Remove patch.
func NewRemovePatch(id uint64) Patch {
	return Patch{Op: PatchRemove, NodeID: id}
}

// EncodePatches encodes a patches frame including its frame type byte.
func EncodePatches(pf *PatchesFrame) []byte {
	e := NewEncoder()
	e.WriteByte(byte(FramePatches))
	EncodePatchesTo(e, pf)
	return e.Bytes()
}

// EncodePatchesTo encodes the frame payload to an existing encoder.
func EncodePatchesTo(e *Encoder, pf *PatchesFrame) {
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))
	for i := range pf.Patches {
		encodePatch(e, &pf.Patches[i])
	}
}

func encodePatch(e *Encoder, p *Patch) {
	e.WriteByte(byte(p.Op))
	e.WriteUvarint(p.NodeID)
	switch p.Op {
	case PatchInsert:
		e.WriteUvarint(p.ParentID)
		e.WriteUvarint(p.PrevID)
		e.WriteString(p.HTML)
		e.WriteIDs(p.IDs)
	case PatchMove:
		e.WriteUvarint(p.ParentID)
		e.WriteUvarint(p.PrevID)
	}
}

// DecodePatches decodes a patches payload.
func DecodePatches(payload []byte) (*PatchesFrame, error) {
	d := NewDecoder(payload)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCount()
	if err != nil {
		return nil, err
	}

	patches := make([]Patch, 0, patchCapacity(count, d.Remaining()))
	for range count {
		var p Patch
		if err := decodePatch(d, &p); err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	return &PatchesFrame{Seq: seq, Patches: patches}, nil
}

// minPatchSize is the smallest encoded patch: an op byte and a node id.
const minPatchSize = 2

// patchCapacity bounds the preallocation for a declared patch count by what
// the remaining input can actually hold.
func patchCapacity(count, remaining int) int {
	return min(count, remaining/minPatchSize)
}

func decodePatch(d *Decoder, p *Patch) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = PatchOp(op)
	if p.NodeID, err = d.ReadUvarint(); err != nil {
		return err
	}

	switch p.Op {
	case PatchInsert:
		if p.ParentID, err = d.ReadUvarint(); err != nil {
			return err
		}
		if p.PrevID, err = d.ReadUvarint(); err != nil {
			return err
		}
		if p.HTML, err = d.ReadString(); err != nil {
			return err
		}
		p.IDs, err = d.ReadIDs()
		return err
	case PatchMove:
		if p.ParentID, err = d.ReadUvarint(); err != nil {
			return err
		}
		p.PrevID, err = d.ReadUvarint()
		return err
	case PatchRemove:
		return nil
	default:
		return fmt.Errorf("protocol: unknown patch op 0x%02x", op)
	}
}
