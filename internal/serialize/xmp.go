package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"seehuhn.de/go/xmp"

	"github.com/ironsheep/cigraph/internal/filter"
	"github.com/ironsheep/cigraph/internal/geom"
)

// Namespace is the XMP namespace that holds serialized chains.
const Namespace = "http://ns.ironsheep.biz/cigraph/1.0/"

// chainXMP is the XMP model of a Document. Steps hold the JSON step list.
type chainXMP struct {
	_      xmp.Namespace `xmp:"http://ns.ironsheep.biz/cigraph/1.0/"`
	_      xmp.Prefix    `xmp:"cigraph"`
	Extent xmp.Text
	Steps  xmp.Text
}

// MarshalXMP writes doc as an XMP packet.
func MarshalXMP(doc Document) ([]byte, error) {
	ext, err := filter.EncodeValue(filter.TypeRectangle, doc.Extent)
	if err != nil {
		return nil, err
	}
	extJSON, err := json.Marshal(ext)
	if err != nil {
		return nil, err
	}
	steps := doc.Steps
	if steps == nil {
		steps = []Step{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode steps: %w", err)
	}

	packet := xmp.NewPacket()
	packet.Set(&chainXMP{
		Extent: xmp.NewText(string(extJSON)),
		Steps:  xmp.NewText(string(stepsJSON)),
	})
	var buf bytes.Buffer
	if err := packet.Write(&buf, &xmp.PacketOptions{Pretty: true}); err != nil {
		return nil, fmt.Errorf("failed to write XMP packet: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalXMP reads a packet written by MarshalXMP.
func UnmarshalXMP(data []byte) (Document, error) {
	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse XMP: %w", err)
	}
	chain := &chainXMP{}
	packet.Get(chain)
	if chain.Extent.V == "" || chain.Steps.V == "" {
		return Document{}, fmt.Errorf("XMP packet has no %s chain", Namespace)
	}

	var ext any
	if err := json.Unmarshal([]byte(chain.Extent.V), &ext); err != nil {
		return Document{}, fmt.Errorf("bad chain extent: %w", err)
	}
	r, err := filter.DecodeValue(filter.TypeRectangle, ext)
	if err != nil {
		return Document{}, fmt.Errorf("bad chain extent: %w", err)
	}
	var steps []Step
	if err := json.Unmarshal([]byte(chain.Steps.V), &steps); err != nil {
		return Document{}, fmt.Errorf("bad chain steps: %w", err)
	}
	return Document{Extent: r.(geom.Rect), Steps: steps}, nil
}
