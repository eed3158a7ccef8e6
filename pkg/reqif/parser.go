package reqif

import (
	"context"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// Options tune a parse. The zero value is ready to use.
type Options struct {
	// Source labels the document in logs and in ParsedDocument.Source.
	Source string
	// FS is where ParseFile reads from. Defaults to the OS filesystem.
	FS afero.Fs
	// Scratch holds the temporary extraction of archives. Defaults to an
	// in-memory filesystem.
	Scratch afero.Fs
}

// Parse decodes a ReqIF document, or a zip archive holding one when
// isArchive is set. Malformed elements are skipped and reported in the
// document's warnings; only archive and document level failures are returned
// as errors.
func Parse(data []byte, isArchive bool) (*ParsedDocument, error) {
	return ParseWithOptions(data, isArchive, Options{})
}

// ParseWithOptions is Parse with explicit options.
func ParseWithOptions(data []byte, isArchive bool, opts Options) (*ParsedDocument, error) {
	doc := newDocument(opts.Source)

	if isArchive {
		scratch := opts.Scratch
		if scratch == nil {
			scratch = afero.NewMemMapFs()
		}
		content, warnings, err := extractDocument(data, scratch)
		if err != nil {
			return nil, err
		}
		doc.Warnings = append(doc.Warnings, warnings...)
		data = content
	}

	root, recovered, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	if recovered != nil {
		doc.errorf("XML syntax error recovered in lenient mode: %v", recovered)
		logf(opts.Source, "recovered from XML syntax error: %v", recovered)
	}
	doc.Stats.TotalElements = root.countElements()

	cat := buildCatalog(root)
	readHeader(root, doc)

	objects := root.find(func(n *node) bool { return n.is("SPEC-OBJECT") })
	if len(objects) == 0 {
		objects = root.find(isIdentifiedElement)
		if len(objects) > 0 {
			doc.warnf("no SPEC-OBJECT elements found, using %d elements carrying an IDENTIFIER", len(objects))
		}
	}
	doc.Stats.SpecObjectCount = len(objects)

	for i, el := range objects {
		req, err := parseObject(el, cat, doc)
		if err != nil {
			doc.warnf("skipped element %d <%s>: %v", i+1, el.name, err)
			debugf(opts.Source, "skipped element %d: %v", i+1, err)
			continue
		}
		if _, dup := doc.Requirements[req.ID]; dup {
			doc.warnf("duplicate identifier %s, keeping the first occurrence", req.ID)
			continue
		}
		doc.Requirements[req.ID] = req
		doc.Stats.AttributeCount += len(req.Attributes)
	}

	logf(opts.Source, "parsed %d requirements (%d elements, %d warnings)",
		len(doc.Requirements), doc.Stats.TotalElements, len(doc.Warnings))
	return doc, nil
}

// IsArchivePath maps a file extension to the archive flag of Parse.
func IsArchivePath(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".reqif", ".xml":
		return false, nil
	case ".reqifz", ".zip":
		return true, nil
	default:
		return false, errors.WithHint(
			markf(ErrUnsupportedFormat, nil, "unsupported file extension %q", filepath.Ext(path)),
			"expected a .reqif or .reqifz file")
	}
}

// ParseFile reads and parses path, choosing raw or archive decoding from the
// extension.
func ParseFile(ctx context.Context, path string, opts Options) (*ParsedDocument, error) {
	isArchive, err := IsArchivePath(path)
	if err != nil {
		return nil, err
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, markf(ErrFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return ParseWithOptions(data, isArchive, opts)
}

type catalog struct {
	attributes map[string]string
	enums      map[string]string
	types      map[string]string
}

func (c *catalog) lookup(m map[string]string, ref string) string {
	if name, ok := m[ref]; ok && name != "" {
		return name
	}
	return ref
}

// buildCatalog indexes definitions so value references resolve to long names.
func buildCatalog(root *node) *catalog {
	cat := &catalog{
		attributes: make(map[string]string),
		enums:      make(map[string]string),
		types:      make(map[string]string),
	}
	root.walk(func(n *node) bool {
		name := strings.ToUpper(n.name)
		id, ok := n.attr("IDENTIFIER")
		if !ok {
			return true
		}
		longName, _ := n.attr("LONG-NAME")
		switch {
		case strings.HasPrefix(name, "ATTRIBUTE-DEFINITION-") && !strings.HasSuffix(name, "-REF"):
			cat.attributes[id] = longName
		case name == "ENUM-VALUE":
			if longName == "" {
				if ev := n.find(func(c *node) bool { return c.is("EMBEDDED-VALUE") }); len(ev) > 0 {
					longName, _ = ev[0].attr("OTHER-CONTENT")
				}
			}
			cat.enums[id] = longName
		case name == "SPEC-OBJECT-TYPE":
			cat.types[id] = longName
		}
		return true
	})
	return cat
}

var headerFields = []string{
	"COMMENT", "CREATION-TIME", "REPOSITORY-ID", "REQ-IF-TOOL-ID",
	"REQ-IF-VERSION", "SOURCE-TOOL-ID", "TITLE",
}

func readHeader(root *node, doc *ParsedDocument) {
	headers := root.find(func(n *node) bool { return n.is("REQ-IF-HEADER") })
	if len(headers) > 0 {
		h := headers[0]
		if id, ok := h.attr("IDENTIFIER"); ok {
			doc.Metadata["identifier"] = id
		}
		for _, field := range headerFields {
			if c := h.child(field); c != nil {
				doc.Metadata[metadataKey(field)] = c.textContent()
			}
		}
	}
	if ext := root.find(func(n *node) bool { return n.is("REQ-IF-TOOL-EXTENSION") }); len(ext) > 0 {
		doc.Metadata["tool_extensions"] = strconv.Itoa(len(ext))
	}
}

func metadataKey(field string) string {
	return strings.ReplaceAll(strings.ToLower(field), "-", "_")
}

// isIdentifiedElement selects fallback requirement elements: anything with an
// IDENTIFIER that is not header, type or definition material.
func isIdentifiedElement(n *node) bool {
	if _, ok := n.attr("IDENTIFIER"); !ok {
		return false
	}
	name := strings.ToUpper(n.name)
	switch {
	case name == "REQ-IF-HEADER", name == "ENUM-VALUE", name == "SPEC-HIERARCHY":
		return false
	case strings.HasPrefix(name, "ATTRIBUTE-DEFINITION-"), strings.HasPrefix(name, "DATATYPE-DEFINITION-"):
		return false
	case strings.HasSuffix(name, "-TYPE"):
		return false
	}
	return true
}

const valueContainerPrefix = "ATTRIBUTE-VALUE-"

func containerKind(n *node) (string, bool) {
	if n.isText {
		return "", false
	}
	name := strings.ToUpper(n.name)
	if !strings.HasPrefix(name, valueContainerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, valueContainerPrefix), true
}

func parseObject(el *node, cat *catalog, doc *ParsedDocument) (req *Requirement, err error) {
	defer func() {
		if r := recover(); r != nil {
			req, err = nil, errors.Newf("unexpected structure: %v", r)
		}
	}()

	id, _ := el.attr("IDENTIFIER")
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("missing IDENTIFIER attribute")
	}

	req = &Requirement{ID: id, Attributes: make(map[string]Value)}
	for _, a := range el.attrs {
		if strings.EqualFold(a.Name.Local, "IDENTIFIER") || a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		req.Attributes[a.Name.Local] = TextValue(a.Value)
	}
	req.LongName, _ = el.attr("LONG-NAME")
	req.LastChange, _ = el.attr("LAST-CHANGE")

	if t := el.child("TYPE"); t != nil {
		if ref := t.child("SPEC-OBJECT-TYPE-REF"); ref != nil {
			req.TypeName = cat.lookup(cat.types, strings.TrimSpace(ref.textContent()))
		}
	}

	var texts []string
	sawTextContainer := false
	containers := el.find(func(n *node) bool {
		_, ok := containerKind(n)
		return ok
	})
	for _, c := range containers {
		kind, _ := containerKind(c)
		if kind == "STRING" || kind == "XHTML" {
			sawTextContainer = true
			if t := containerText(c, kind); t != "" {
				texts = append(texts, t)
			}
		}

		ref := definitionRef(c)
		if ref == "" {
			continue
		}
		name := cat.lookup(cat.attributes, ref)
		val, problem := decodeValue(c, kind, cat)
		if problem != "" {
			doc.warnf("%s: attribute %q: %s", id, name, problem)
		}
		req.Attributes[name] = val
	}

	if sawTextContainer {
		req.Text = strings.Join(texts, " ")
	} else {
		req.Text = el.textContent()
	}
	return req, nil
}

// definitionRef returns the attribute definition a value container points
// at, from either an ATTRIBUTE-DEFINITION-REF attribute or a DEFINITION child.
func definitionRef(c *node) string {
	if ref, ok := c.attr("ATTRIBUTE-DEFINITION-REF"); ok {
		return strings.TrimSpace(ref)
	}
	def := c.child("DEFINITION")
	if def == nil {
		return ""
	}
	for _, k := range def.elements() {
		if strings.HasPrefix(strings.ToUpper(k.name), "ATTRIBUTE-DEFINITION-") {
			return strings.TrimSpace(k.textContent())
		}
	}
	return strings.TrimSpace(def.textContent())
}

func theValue(c *node) string {
	if v, ok := c.attr("THE-VALUE"); ok {
		return v
	}
	if tv := c.child("THE-VALUE"); tv != nil {
		return tv.textContent()
	}
	return ""
}

func containerText(c *node, kind string) string {
	if kind == "XHTML" {
		return PlainText(xhtmlValue(c))
	}
	return strings.TrimSpace(theValue(c))
}

func xhtmlValue(c *node) string {
	if v, ok := c.attr("THE-VALUE"); ok {
		return v
	}
	if tv := c.child("THE-VALUE"); tv != nil {
		return strings.TrimSpace(tv.innerXML())
	}
	return ""
}

// decodeValue types a container's value by its tag suffix. problem is
// non-empty when the raw value could not be decoded and a default was used.
func decodeValue(c *node, kind string, cat *catalog) (v Value, problem string) {
	switch kind {
	case "XHTML":
		return HTMLValue(xhtmlValue(c)), ""
	case "ENUMERATION":
		scope := c
		if vals := c.child("VALUES"); vals != nil {
			scope = vals
		}
		var names []string
		for _, ref := range scope.find(func(n *node) bool { return n.is("ENUM-VALUE-REF") }) {
			names = append(names, cat.lookup(cat.enums, strings.TrimSpace(ref.textContent())))
		}
		return EnumValue(strings.Join(names, ", ")), ""
	case "BOOLEAN":
		raw := strings.ToLower(strings.TrimSpace(theValue(c)))
		switch raw {
		case "true", "1":
			return BoolValue(true), ""
		case "false", "0":
			return BoolValue(false), ""
		}
		return BoolValue(false), "invalid boolean " + strconv.Quote(raw) + ", using false"
	case "INTEGER":
		raw := strings.TrimSpace(theValue(c))
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return IntValue(0), "invalid integer " + strconv.Quote(raw) + ", using 0"
		}
		return IntValue(i), ""
	case "REAL":
		raw := strings.TrimSpace(theValue(c))
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RealValue(0), "invalid real " + strconv.Quote(raw) + ", using 0"
		}
		return RealValue(f), ""
	default:
		return TextValue(theValue(c)), ""
	}
}
