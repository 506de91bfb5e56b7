package render

import (
	"strings"

	"github.com/chumsley/keynote-summary/internal/doctree"
	"github.com/chumsley/keynote-summary/internal/keynote"
)

// Outline nests slides by depth: each slide becomes a child of the nearest
// preceding slide with a smaller depth.
func Outline(title string, slides []*keynote.Slide) *doctree.DocTree {
	tree := &doctree.DocTree{Title: title}

	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}
	// Root is level 0; every slide nests under it.
	root := &doctree.DocNode{Title: title}
	stack := []stackEntry{{node: root, level: 0}}

	for _, s := range slides {
		heading, body := s.Content()
		level := s.Level()
		node := &doctree.DocNode{
			Title:  heading,
			Text:   strings.Join(body, "\n\n"),
			Slide:  s.Number,
			Depth:  level,
			Hidden: s.Hidden,
		}

		// Pop stack until we find a parent with lower level.
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: level})
	}

	tree.Children = root.Children
	return tree
}
