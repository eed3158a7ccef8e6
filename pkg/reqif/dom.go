package reqif

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html/charset"
)

// node is a minimal namespace-agnostic XML tree. Element names are local
// names (prefix dropped); text nodes have an empty name.
type node struct {
	name   string
	attrs  []xml.Attr
	kids   []*node
	text   string
	isText bool
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) is(name string) bool { return !n.isText && strings.EqualFold(n.name, name) }

// child returns the first element child with the given local name.
func (n *node) child(name string) *node {
	for _, k := range n.kids {
		if k.is(name) {
			return k
		}
	}
	return nil
}

func (n *node) elements() []*node {
	out := make([]*node, 0, len(n.kids))
	for _, k := range n.kids {
		if !k.isText {
			out = append(out, k)
		}
	}
	return out
}

// walk visits n and its element descendants depth-first, in document order.
// Returning false from fn skips the node's subtree.
func (n *node) walk(fn func(*node) bool) {
	if n.isText {
		return
	}
	if !fn(n) {
		return
	}
	for _, k := range n.kids {
		k.walk(fn)
	}
}

func (n *node) find(match func(*node) bool) []*node {
	var out []*node
	n.walk(func(c *node) bool {
		if match(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// textContent concatenates all descendant text, trimming each segment and
// joining non-empty segments with single spaces.
func (n *node) textContent() string {
	var parts []string
	var collect func(*node)
	collect = func(c *node) {
		if c.isText {
			if t := strings.TrimSpace(c.text); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for _, k := range c.kids {
			collect(k)
		}
	}
	collect(n)
	return strings.Join(parts, " ")
}

// innerXML re-serializes the children of n with local names only.
func (n *node) innerXML() string {
	var b bytes.Buffer
	for _, k := range n.kids {
		k.writeXML(&b)
	}
	return b.String()
}

func (n *node) writeXML(b *bytes.Buffer) {
	if n.isText {
		_ = xml.EscapeText(b, []byte(n.text))
		return
	}
	b.WriteByte('<')
	b.WriteString(n.name)
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Name.Local)
		b.WriteString(`="`)
		_ = xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}
	if len(n.kids) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, k := range n.kids {
		k.writeXML(b)
	}
	b.WriteString("</")
	b.WriteString(n.name)
	b.WriteByte('>')
}

func (n *node) countElements() int {
	count := 0
	n.walk(func(*node) bool { count++; return true })
	return count
}

// decodeTree parses data strictly, retrying once in lenient mode on a syntax
// error. recovered carries the strict-mode error when the lenient retry was
// needed.
func decodeTree(data []byte) (root *node, recovered error, err error) {
	root, err = buildTree(data, true)
	if err == nil {
		return root, nil, nil
	}
	strictErr := err
	root, err = buildTree(data, false)
	if err != nil {
		return nil, nil, markf(ErrMalformedXml, strictErr, "decode XML")
	}
	return root, strictErr, nil
}

func buildTree(data []byte, strict bool) (*node, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	if !strict {
		d.Strict = false
		d.AutoClose = xml.HTMLAutoClose
		d.Entity = xml.HTMLEntity
	}

	var root *node
	var stack []*node
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Lenient mode keeps whatever was built before the damage.
			if !strict && root != nil {
				return root, nil
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &node{name: t.Name.Local, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					if strict {
						return nil, errors.New("multiple root elements")
					}
					continue
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, &node{text: string(t), isText: true})
			}
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	if strict && len(stack) > 0 {
		return nil, errors.Newf("unclosed element <%s>", stack[len(stack)-1].name)
	}
	return root, nil
}
