package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// XML documents mirror the JSON shape element for element:
//
//	<object type="object"><expense_id type="number">417</expense_id></object>
//	<array type="array"><item type="object">...</item></array>
//
// Object members are child elements named after their key (keys that are
// not XML names are written as <member name="key">), array entries are
// <item> children and scalars carry their kind in the type attribute.
// Elements without a type attribute are strings, or objects when they have
// child elements. Strings and keys holding characters XML 1.0 cannot carry
// are base64 encoded and marked with encoding="base64".
const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeNumber  = "number"
	typeBoolean = "boolean"
	typeNull    = "null"

	itemElement   = "item"
	memberElement = "member"
	typeAttr      = "type"
	nameAttr      = "name"
	encodingAttr  = "encoding"
	base64Value   = "base64"
)

var numberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

type xmlCodec struct{}

func XML() Codec { return xmlCodec{} }

func (xmlCodec) Format() domain.Format { return domain.FormatXML }

func (xmlCodec) ContentType() string { return "text/xml; charset=utf-8" }

// Decode treats the root element as an object unless it declares another
// type, so <expense><payee>..</payee></expense> and <expense/> both decode.
func (xmlCodec) Decode(body []byte) (domain.ExpenseInput, error) {
	root, err := parseXML(body)
	if err != nil {
		return nil, &DecodeError{Format: domain.FormatXML, Err: err}
	}
	var v any
	if _, typed := root.attrs[typeAttr]; typed {
		v, err = root.value()
	} else {
		v, err = root.object()
	}
	if err != nil {
		return nil, &DecodeError{Format: domain.FormatXML, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Format: domain.FormatXML, Err: ErrRootNotObject}
	}
	return domain.ExpenseInput(obj), nil
}

func (xmlCodec) Unmarshal(body []byte) (any, error) {
	root, err := parseXML(body)
	if err != nil {
		return nil, &DecodeError{Format: domain.FormatXML, Err: err}
	}
	v, err := root.value()
	if err != nil {
		return nil, &DecodeError{Format: domain.FormatXML, Err: err}
	}
	return v, nil
}

func (xmlCodec) Encode(v any) ([]byte, error) {
	doc, err := Document(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	root := "value"
	switch doc.(type) {
	case map[string]any:
		root = typeObject
	case []any:
		root = typeArray
	}
	if err := encodeElement(enc, xml.StartElement{Name: xml.Name{Local: root}}, doc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, start xml.StartElement, v any) error {
	var text string
	switch t := v.(type) {
	case map[string]any:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeObject})
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := encodeElement(enc, memberStart(k), t[k]); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case []any:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeArray})
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range t {
			if err := encodeElement(enc, xml.StartElement{Name: xml.Name{Local: itemElement}}, item); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	case string:
		if !xmlSafe(t) {
			start.Attr = append(start.Attr,
				xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeString},
				xml.Attr{Name: xml.Name{Local: encodingAttr}, Value: base64Value},
			)
			t = base64.StdEncoding.EncodeToString([]byte(t))
		}
		text = t
	case json.Number:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeNumber})
		text = t.String()
	case bool:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeBoolean})
		text = fmt.Sprint(t)
	case nil:
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: typeAttr}, Value: typeNull})
	default:
		return fmt.Errorf("codec: unsupported value of type %T", v)
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func memberStart(key string) xml.StartElement {
	if isXMLName(key) {
		return xml.StartElement{Name: xml.Name{Local: key}}
	}
	if !xmlSafe(key) {
		return xml.StartElement{
			Name: xml.Name{Local: memberElement},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: nameAttr}, Value: base64.StdEncoding.EncodeToString([]byte(key))},
				{Name: xml.Name{Local: encodingAttr}, Value: base64Value},
			},
		}
	}
	return xml.StartElement{
		Name: xml.Name{Local: memberElement},
		Attr: []xml.Attr{{Name: xml.Name{Local: nameAttr}, Value: key}},
	}
}

// xmlSafe reports whether s survives as XML character data unchanged. A
// carriage return does not: parsers fold it into a newline.
func xmlSafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

func decodeBase64(attrs map[string]string, s string) (string, error) {
	enc, ok := attrs[encodingAttr]
	if !ok {
		return s, nil
	}
	if enc != base64Value {
		return "", fmt.Errorf("unknown encoding %q", enc)
	}
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// isXMLName reports whether key can be written as an element name without
// namespaces or the reserved xml prefix getting in the way.
func isXMLName(key string) bool {
	if key == "" || strings.HasPrefix(strings.ToLower(key), "xml") {
		return false
	}
	for i, r := range key {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

type xmlNode struct {
	name     string
	attrs    map[string]string
	children []*xmlNode
	text     strings.Builder
}

func parseXML(body []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				if a.Name.Space == "" {
					n.attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("more than one root element")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text outside the root element")
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

func (n *xmlNode) value() (any, error) {
	typ, typed := n.attrs[typeAttr]
	if !typed {
		if len(n.children) > 0 {
			return n.object()
		}
		return n.text.String(), nil
	}

	switch typ {
	case typeObject:
		return n.object()
	case typeArray:
		return n.array()
	}

	if len(n.children) > 0 {
		return nil, fmt.Errorf("<%s> of type %q has child elements", n.name, typ)
	}
	text := n.text.String()
	switch typ {
	case typeString:
		s, err := decodeBase64(n.attrs, text)
		if err != nil {
			return nil, fmt.Errorf("<%s>: %w", n.name, err)
		}
		return s, nil
	case typeNumber:
		s := strings.TrimSpace(text)
		if !numberRe.MatchString(s) {
			return nil, fmt.Errorf("<%s>: %q is not a number", n.name, s)
		}
		return json.Number(s), nil
	case typeBoolean:
		switch strings.TrimSpace(text) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("<%s>: %q is not a boolean", n.name, text)
	case typeNull:
		if strings.TrimSpace(text) != "" {
			return nil, fmt.Errorf("<%s>: null element has content", n.name)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("<%s>: unknown type %q", n.name, typ)
	}
}

func (n *xmlNode) object() (map[string]any, error) {
	if err := n.noMixedText(); err != nil {
		return nil, err
	}
	obj := make(map[string]any, len(n.children))
	for _, child := range n.children {
		key := child.name
		if name, ok := child.attrs[nameAttr]; ok && child.name == memberElement {
			decoded, err := decodeBase64(child.attrs, name)
			if err != nil {
				return nil, fmt.Errorf("<%s>: member name: %w", n.name, err)
			}
			key = decoded
		}
		if _, dup := obj[key]; dup {
			return nil, fmt.Errorf("<%s>: duplicate member %q", n.name, key)
		}
		v, err := child.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}
	return obj, nil
}

func (n *xmlNode) array() ([]any, error) {
	if err := n.noMixedText(); err != nil {
		return nil, err
	}
	list := make([]any, 0, len(n.children))
	for _, child := range n.children {
		v, err := child.value()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func (n *xmlNode) noMixedText() error {
	if strings.TrimSpace(n.text.String()) != "" {
		return fmt.Errorf("<%s>: text mixed with child elements", n.name)
	}
	return nil
}
