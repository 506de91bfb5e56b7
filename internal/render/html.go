package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Manual line breaks inside a paragraph are single newlines in the
// markdown; hard wraps keep them as <br>.
var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

// HTML converts rendered markdown into a standalone HTML page.
func HTML(md, title string) ([]byte, error) {
	var frag bytes.Buffer
	if err := markdown.Convert([]byte(md), &frag); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	body := element(atom.Body)
	nodes, err := html.ParseFragment(&frag, body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	titleEl := element(atom.Title)
	titleEl.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head := element(atom.Head)
	head.AppendChild(meta)
	head.AppendChild(titleEl)

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return out.Bytes(), nil
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
}
