package notion

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render turns a highlight into the block sequence Notion would hold for it.
// Rich HTML wins when present; otherwise the plain text is used.
func Render(text string, richHTML *string) []Block {
	if richHTML != nil && strings.TrimSpace(*richHTML) != "" {
		if blocks, err := RenderHTML(*richHTML); err == nil && len(blocks) > 0 {
			return blocks
		}
	}
	return RenderPlain(text)
}

// RenderHTML maps block-level elements to blocks in document order.
// Inline content outside any block element becomes a paragraph.
func RenderHTML(src string) ([]Block, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, err
	}
	r := &htmlRenderer{}
	for _, n := range nodes {
		r.node(n)
	}
	r.flush()
	return r.out, nil
}

type htmlRenderer struct {
	out    []Block
	inline strings.Builder
}

func (r *htmlRenderer) emit(t BlockType, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.out = append(r.out, Block{Type: t, Text: text})
}

func (r *htmlRenderer) flush() {
	r.emit(Paragraph, r.inline.String())
	r.inline.Reset()
}

func (r *htmlRenderer) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.inline.WriteString(n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.P:
		r.flush()
		r.emit(Paragraph, textOf(n))
	case atom.H1:
		r.flush()
		r.emit(Heading1, textOf(n))
	case atom.H2:
		r.flush()
		r.emit(Heading2, textOf(n))
	case atom.H3, atom.H4, atom.H5, atom.H6:
		r.flush()
		r.emit(Heading3, textOf(n))
	case atom.Blockquote:
		r.flush()
		r.emit(Quote, textOf(n))
	case atom.Pre:
		r.flush()
		r.emit(Code, textOf(n))
	case atom.Ul:
		r.flush()
		r.list(n, Bulleted)
	case atom.Ol:
		r.flush()
		r.list(n, Numbered)
	case atom.Hr:
		r.flush()
	case atom.Br:
		r.inline.WriteString("\n")
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer:
		r.flush()
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.node(c)
		}
		r.flush()
	default:
		r.inline.WriteString(textOf(n))
	}
}

// list emits one item per li; nested lists follow their parent item.
func (r *htmlRenderer) list(n *html.Node, t BlockType) {
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		var own strings.Builder
		var nested []*html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				nested = append(nested, c)
				continue
			}
			own.WriteString(textOf(c))
		}
		r.emit(t, own.String())
		for _, c := range nested {
			if c.DataAtom == atom.Ol {
				r.list(c, Numbered)
			} else {
				r.list(c, Bulleted)
			}
		}
	}
}

func textOf(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			return "\n"
		}
	default:
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

var (
	blankLine  = regexp.MustCompile(`\n[ \t]*\n`)
	bulletLine = regexp.MustCompile(`^\s*(?:[-*•])\s+(.*)$`)
	numberLine = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
)

// RenderPlain splits on blank lines into paragraphs. Lines starting with a
// bullet or "1." marker become list items.
func RenderPlain(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []Block
	for _, chunk := range blankLine.Split(text, -1) {
		var para []string
		flush := func() {
			if s := strings.TrimSpace(strings.Join(para, "\n")); s != "" {
				out = append(out, Block{Type: Paragraph, Text: s})
			}
			para = para[:0]
		}
		for _, line := range strings.Split(chunk, "\n") {
			if m := bulletLine.FindStringSubmatch(line); m != nil {
				flush()
				out = append(out, Block{Type: Bulleted, Text: strings.TrimSpace(m[1])})
				continue
			}
			if m := numberLine.FindStringSubmatch(line); m != nil {
				flush()
				out = append(out, Block{Type: Numbered, Text: strings.TrimSpace(m[1])})
				continue
			}
			para = append(para, line)
		}
		flush()
	}
	return out
}
