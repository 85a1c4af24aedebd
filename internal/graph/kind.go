package graph

import "fmt"

// Kind identifies the operation of a node.
type Kind int

// Node kinds.
const (
	KindSource Kind = iota
	KindTransform
	KindCrop
	KindComposite
	KindFilter
	KindColorMatch
	KindBlur
	KindSetAlpha
	KindClamp
	KindPremultiply
	KindUnpremultiply
	KindProperties
)

var kindNames = [...]string{
	KindSource:        "source",
	KindTransform:     "transform",
	KindCrop:          "crop",
	KindComposite:     "composite",
	KindFilter:        "filter",
	KindColorMatch:    "colormatch",
	KindBlur:          "blur",
	KindSetAlpha:      "setalpha",
	KindClamp:         "clamp",
	KindPremultiply:   "premultiply",
	KindUnpremultiply: "unpremultiply",
	KindProperties:    "properties",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// SourceKind tells which payload a source node carries.
type SourceKind int

// Source payloads.
const (
	SourceEmpty SourceKind = iota
	SourceBuffer
	SourceColor
	SourceHandle
)

func (k SourceKind) String() string {
	switch k {
	case SourceEmpty:
		return "empty"
	case SourceBuffer:
		return "buffer"
	case SourceColor:
		return "color"
	case SourceHandle:
		return "handle"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}
