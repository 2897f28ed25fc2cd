package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NodeType is the closed set of design-tree node kinds the extractor cares about.
// Anything else decodes to NodeOther.
type NodeType string

const (
	NodeText      NodeType = "TEXT"
	NodeFrame     NodeType = "FRAME"
	NodeGroup     NodeType = "GROUP"
	NodeComponent NodeType = "COMPONENT"
	NodeInstance  NodeType = "INSTANCE"
	NodeCanvas    NodeType = "CANVAS"
	NodeOther     NodeType = "OTHER"
)

// ParseNodeType maps a raw type tag onto a NodeType.
func ParseNodeType(s string) NodeType {
	switch t := NodeType(s); t {
	case NodeText, NodeFrame, NodeGroup, NodeComponent, NodeInstance, NodeCanvas:
		return t
	default:
		return NodeOther
	}
}

// IsContainer reports whether the walker descends into this node's children.
func (t NodeType) IsContainer() bool {
	switch t {
	case NodeFrame, NodeGroup, NodeComponent, NodeInstance:
		return true
	case NodeText, NodeCanvas, NodeOther:
		return false
	default:
		return false
	}
}

// BoundingBox is the absolute position of a node in document space.
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one element of a design document tree.
//
// Decoding is lenient: a field with the wrong JSON type falls back to its
// default instead of failing the whole document, and children that are not
// objects are skipped.
type Node struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Type                NodeType     `json:"type"`
	Visible             *bool        `json:"visible,omitempty"` // nil means visible
	Characters          string       `json:"characters,omitempty"`
	AbsoluteBoundingBox *BoundingBox `json:"absoluteBoundingBox,omitempty"`
	Children            []*Node      `json:"children,omitempty"`
}

// IsVisible returns false only when the node explicitly sets visible=false.
func (n *Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// Position returns the node's x/y, or 0/0 without a bounding box.
func (n *Node) Position() (x, y float64) {
	if n.AbsoluteBoundingBox == nil {
		return 0, 0
	}
	return n.AbsoluteBoundingBox.X, n.AbsoluteBoundingBox.Y
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: node is not an object", ErrInvalidDocument)
	}

	*n = Node{}
	lenient(raw["id"], &n.ID)
	lenient(raw["name"], &n.Name)
	lenient(raw["characters"], &n.Characters)

	var typ string
	lenient(raw["type"], &typ)
	n.Type = ParseNodeType(typ)

	if v, ok := raw["visible"]; ok {
		visible := true
		if lenient(v, &visible) {
			n.Visible = &visible
		}
	}

	if v, ok := raw["absoluteBoundingBox"]; ok {
		var box BoundingBox
		if lenient(v, &box) {
			n.AbsoluteBoundingBox = &box
		}
	}

	var children []json.RawMessage
	if lenient(raw["children"], &children) {
		for _, c := range children {
			child := &Node{}
			if err := json.Unmarshal(c, child); err != nil {
				continue
			}
			n.Children = append(n.Children, child)
		}
	}
	return nil
}

// lenient decodes v into target and reports success. A missing, null or
// mistyped value leaves target untouched.
func lenient(v json.RawMessage, target any) bool {
	if len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return false
	}
	return json.Unmarshal(v, target) == nil
}

// Document is the payload returned by the design-file API for one file key.
type Document struct {
	Name         string `json:"name"`
	LastModified string `json:"lastModified,omitempty"`
	Version      string `json:"version,omitempty"`
	Root         *Node  `json:"document"`
}

// ParseDocument decodes a file payload. Both the API envelope
// ({"document": {...}}) and a bare root node are accepted.
func ParseDocument(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{}
	lenient(raw["name"], &doc.Name)
	lenient(raw["lastModified"], &doc.LastModified)
	lenient(raw["version"], &doc.Version)

	body, ok := raw["document"]
	if !ok {
		body = data
	}
	root := &Node{}
	if err := json.Unmarshal(body, root); err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

// Bool is a helper for building nodes with an explicit visibility.
func Bool(v bool) *bool { return &v }
