package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chumsley/keynote-summary/internal/doctree"
	"github.com/fumiama/go-docx"
)

// headingSizes are run sizes in half-points by heading level.
var headingSizes = []string{"36", "32", "28", "26", "24", "22"}

// DOCX writes the outline as a Word document. Slide titles become
// HeadingN paragraphs; body blocks become one paragraph each.
func DOCX(w io.Writer, tree *doctree.DocTree) error {
	doc := docx.New().WithDefaultTheme()

	tree.Walk(func(n *doctree.DocNode, _ int) {
		level := min(max(n.Depth, 1), 9)
		title := n.Title
		if n.Slide > 0 {
			title = fmt.Sprintf("%d: %s", n.Slide, title)
		}
		size := headingSizes[min(level, len(headingSizes))-1]
		doc.AddParagraph().Style("Heading" + strconv.Itoa(level)).AddText(title).Bold().Size(size)

		if n.Text == "" {
			return
		}
		for _, para := range strings.Split(n.Text, "\n\n") {
			if strings.TrimSpace(para) == "" {
				continue
			}
			doc.AddParagraph().AddText(para)
		}
	})

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
