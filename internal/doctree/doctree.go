package doctree

// DocTree is the outline of a rendered presentation.
type DocTree struct {
	Title    string     `json:"title"`
	Children []*DocNode `json:"children"`
}

// DocNode is one slide, nested under the nearest preceding slide of a
// shallower depth.
type DocNode struct {
	Title    string     `json:"title"`
	Text     string     `json:"text,omitempty"` // Body blocks separated by blank lines
	Slide    int        `json:"slide,omitempty"` // Slide number (0 if unnumbered)
	Depth    int        `json:"depth"`
	Hidden   bool       `json:"hidden,omitempty"`
	Children []*DocNode `json:"children,omitempty"`
}

// Walk visits nodes depth-first in document order.
func (t *DocTree) Walk(fn func(n *DocNode, level int)) {
	var walk func(nodes []*DocNode, level int)
	walk = func(nodes []*DocNode, level int) {
		for _, n := range nodes {
			fn(n, level)
			walk(n.Children, level+1)
		}
	}
	walk(t.Children, 1)
}
