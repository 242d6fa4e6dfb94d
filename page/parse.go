// Package page parses article HTML and lays it out as terminal lines, with
// the geometry mapping that turns mouse drags into selected text.
package page

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// BlockKind classifies a flowed content block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading1
	BlockHeading2
	BlockHeading3
	BlockListItem
	BlockQuote
	BlockCode
)

// Block is one flowed unit of page content.
type Block struct {
	Kind BlockKind
	Text string
}

// Document is a parsed page ready for layout.
type Document struct {
	Title  string
	Blocks []Block

	// raw keeps the original markup for context extraction.
	raw string
}

// skip these subtrees entirely; they hold chrome, not content.
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true, "footer": true,
	"aside": true, "noscript": true, "iframe": true, "svg": true,
	"header": true, "form": true,
}

// Parse reads HTML and extracts the readable blocks.
func Parse(r io.Reader) (*Document, error) {
	var buf strings.Builder
	tee := io.TeeReader(r, &buf)
	root, err := html.Parse(tee)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	walk(root, doc)
	doc.raw = buf.String()
	return doc, nil
}

// ParseString parses HTML held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func walk(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode {
		if skipTags[n.Data] {
			return
		}
		switch n.Data {
		case "title":
			if doc.Title == "" {
				doc.Title = collapseSpace(textContent(n))
			}
			return
		case "h1":
			doc.addBlock(BlockHeading1, textContent(n))
			return
		case "h2":
			doc.addBlock(BlockHeading2, textContent(n))
			return
		case "h3", "h4", "h5", "h6":
			doc.addBlock(BlockHeading3, textContent(n))
			return
		case "p":
			doc.addBlock(BlockParagraph, textContent(n))
			return
		case "li":
			doc.addBlock(BlockListItem, textContent(n))
			return
		case "blockquote":
			doc.addBlock(BlockQuote, textContent(n))
			return
		case "pre":
			doc.addCode(rawText(n))
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, doc)
	}
}

func (d *Document) addBlock(kind BlockKind, text string) {
	text = collapseSpace(text)
	if text == "" {
		return
	}
	d.Blocks = append(d.Blocks, Block{Kind: kind, Text: text})
}

func (d *Document) addCode(text string) {
	text = strings.Trim(text, "\n")
	if text == "" {
		return
	}
	d.Blocks = append(d.Blocks, Block{Kind: BlockCode, Text: text})
}

// textContent flattens a subtree to its visible text.
func textContent(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// rawText is textContent without whitespace collapsing, for code blocks.
func rawText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
