package doctree

// Kind distinguishes the node variants of a parsed document.
type Kind int

const (
	TextNode    Kind = iota // Character data, stored unescaped
	ElementNode             // Tag with attributes and children
	RawNode                 // Comment or doctype, emitted verbatim
)

// Attr is a single attribute. Attributes are kept in a slice so source order survives.
type Attr struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

// Node is an element, text or raw node of a parsed document. The parser
// builds the tree once; nothing mutates it afterwards.
type Node struct {
	Kind     Kind
	Tag      string  // Element tag name; empty for the implicit root
	Attrs    []Attr  // Element attributes in source order
	Children []*Node // Element children in document order
	Text     string  // Text content, or verbatim markup for RawNode

	Splittable  bool // Element may be closed and reopened across fragments
	Void        bool // Element has no closing tag (br, img, ...)
	SelfClosing bool // Element was written as <tag/>
	RawText     bool // Text lives inside script/style and must not be escaped
}

// NewRoot returns the implicit container that holds a document's top-level nodes.
func NewRoot() *Node {
	return &Node{Kind: ElementNode, Splittable: true}
}

// IsRoot reports whether n is an implicit root container.
func (n *Node) IsRoot() bool {
	return n.Kind == ElementNode && n.Tag == ""
}

// Empty reports whether the subtree holds no content at all.
func (n *Node) Empty() bool {
	return n.IsRoot() && len(n.Children) == 0
}

// Frame is an open splittable element at the splitter's cursor: the tag and
// attributes needed to close it and reopen an equivalent element.
type Frame struct {
	Tag   string `json:"tag"`
	Attrs []Attr `json:"attrs,omitempty"`
}

// FrameOf returns the ancestor frame for an element node.
func FrameOf(n *Node) Frame {
	return Frame{Tag: n.Tag, Attrs: n.Attrs}
}

// Fragment is one independently renderable piece of the split document.
type Fragment struct {
	Index    int     `json:"index"`          // 1-based position in document order
	Length   int     `json:"length"`         // Character count of Text
	Text     string  `json:"text"`           // Serialized, well-formed HTML
	Oversize bool    `json:"oversize"`       // Holds a unit that alone exceeds the budget
	Open     []Frame `json:"open,omitempty"` // Ancestors closed synthetically at the end, reopened by the next fragment
}

// UnitKind names the kind of indivisible unit reported in an OversizeUnit.
type UnitKind string

const (
	UnitText    UnitKind = "text"
	UnitElement UnitKind = "element"
	UnitRaw     UnitKind = "raw"
	UnitOpenTag UnitKind = "open_tag"
)

// OversizeUnit records a unit that could not be placed within the budget even
// in a fresh fragment. The unit is still emitted; nothing is truncated.
type OversizeUnit struct {
	Fragment int      `json:"fragment"` // Index of the fragment that holds the unit
	Kind     UnitKind `json:"kind"`
	Tag      string   `json:"tag,omitempty"`
	Size     int      `json:"size"`     // Characters of the unit itself
	Overhead int      `json:"overhead"` // Characters of synthetic reopen/close tags in that fragment
	Budget   int      `json:"budget"`
}
