// Package xmltree decodes result files into an order preserving element tree.
//
// Every element becomes a Node. Attributes and child elements are kept in
// document order, the character data of an element is trimmed and stored in
// Text. Callers never see differently shaped values for "one child" and
// "many children": Children always returns a slice.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

var ErrNoElement = errors.New("document contains no element")

type Attr struct {
	Name  string
	Value string
}

type Node struct {
	Name  string
	Attrs []Attr
	Text  string
	Nodes []*Node
}

// Decode parses data and returns a document node whose only child is the
// top level element of data.
func Decode(data []byte) (*Node, error) {
	return DecodeReader(bytes.NewReader(data))
}

func DecodeReader(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	doc := &Node{}
	stack := []*Node{doc}
	texts := []*strings.Builder{{}}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			parent := stack[len(stack)-1]
			parent.Nodes = append(parent.Nodes, n)
			stack = append(stack, n)
			texts = append(texts, &strings.Builder{})
		case xml.EndElement:
			cur := stack[len(stack)-1]
			cur.Text = strings.TrimSpace(texts[len(texts)-1].String())
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]
		case xml.CharData:
			texts[len(texts)-1].Write(t)
		}
	}
	if len(doc.Nodes) == 0 {
		return nil, ErrNoElement
	}
	return doc, nil
}

// Child returns the first child element named name or nil.
// Safe to call on a nil node.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Nodes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Children returns all child elements named name in document order.
func (n *Node) Children(name string) []*Node {
	if n == nil {
		return nil
	}
	var ret []*Node
	for _, c := range n.Nodes {
		if c.Name == name {
			ret = append(ret, c)
		}
	}
	return ret
}

// Path follows the first matching child for each name.
func (n *Node) Path(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttrs reports whether the element carries attributes
func (n *Node) HasAttrs() bool {
	return n != nil && len(n.Attrs) > 0
}

// TextOf returns the text of the first child named name, "" if absent.
func (n *Node) TextOf(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text
	}
	return ""
}

// Keys returns the distinct child element names in order of first appearance.
func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	seen := map[string]bool{}
	ret := []string{}
	for _, c := range n.Nodes {
		if !seen[c.Name] {
			seen[c.Name] = true
			ret = append(ret, c.Name)
		}
	}
	return ret
}

// Encode writes n and its descendants as xml.
func (n *Node) Encode(w io.Writer) error {
	enc := xml.NewEncoder(w)
	if err := n.encode(enc); err != nil {
		return err
	}
	return enc.Flush()
}

// Bytes returns the xml representation of n.
func (n *Node) Bytes() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := n.Encode(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Nodes {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
