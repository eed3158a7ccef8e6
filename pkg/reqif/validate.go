package reqif

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of ValidateFile.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ValidationReport is the outcome of a structural check. It never covers the
// full ReqIF schema, only the subset the parser relies on.
type ValidationReport struct {
	Path   string  `json:"path"`
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

func (r *ValidationReport) add(sev Severity, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the messages of error-severity issues.
func (r *ValidationReport) Errors() []string { return r.messages(SeverityError) }

// Warnings returns the messages of warning-severity issues.
func (r *ValidationReport) Warnings() []string { return r.messages(SeverityWarning) }

func (r *ValidationReport) messages(sev Severity) []string {
	var out []string
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is.Message)
		}
	}
	return out
}

// markerWindow is how many leading bytes must mention ReqIF.
const markerWindow = 1024

// ValidateFile checks that path looks like a ReqIF file the parser can use:
// a known extension, a readable zip for archives, a ReqIF marker near the
// start, well-formed XML and the expected top-level structure.
func ValidateFile(fsys afero.Fs, path string) (report ValidationReport) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	report.Path = path
	defer func() { report.Valid = len(report.Errors()) == 0 }()

	isArchive, err := IsArchivePath(path)
	if err != nil {
		report.add(SeverityError, "%v", err)
		return report
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			report.add(SeverityError, "file not found")
		} else {
			report.add(SeverityError, "cannot read file: %v", err)
		}
		return report
	}
	if len(data) == 0 {
		report.add(SeverityError, "file is empty")
		return report
	}

	if isArchive {
		data = validateArchive(&report, data)
		if data == nil {
			return report
		}
	}
	validateDocument(&report, data)
	return report
}

func validateArchive(report *ValidationReport, data []byte) []byte {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		report.add(SeverityError, "not a valid zip archive: %v", err)
		return nil
	}
	var docs []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && isDocumentName(f.Name) {
			docs = append(docs, f)
		}
	}
	switch {
	case len(docs) == 0:
		report.add(SeverityError, "archive contains no .reqif document")
		return nil
	case len(docs) > 1:
		report.add(SeverityWarning, "archive contains %d .reqif documents, only %s is used", len(docs), docs[0].Name)
	}
	content, _, err := extractDocument(data, afero.NewMemMapFs())
	if err != nil {
		report.add(SeverityError, "cannot extract %s: %v", docs[0].Name, err)
		return nil
	}
	return content
}

func validateDocument(report *ValidationReport, data []byte) {
	head := data
	if len(head) > markerWindow {
		head = head[:markerWindow]
	}
	if !bytes.Contains(head, []byte("REQ-IF")) && !bytes.Contains(head, []byte("reqif")) {
		report.add(SeverityError, "no ReqIF marker in the first %d bytes", markerWindow)
	}

	root, recovered, err := decodeTree(data)
	if err != nil {
		report.add(SeverityError, "XML is not well-formed: %v", err)
		return
	}
	if recovered != nil {
		report.add(SeverityWarning, "XML is not well-formed but recoverable: %v", recovered)
	}

	if !root.is("REQ-IF") {
		report.add(SeverityWarning, "root element is <%s>, expected <REQ-IF>", root.name)
	}
	if root.child("THE-HEADER") == nil {
		report.add(SeverityWarning, "missing THE-HEADER")
	}
	if root.child("CORE-CONTENT") == nil {
		report.add(SeverityError, "missing CORE-CONTENT")
	}

	cat := buildCatalog(root)
	objects := root.find(func(n *node) bool { return n.is("SPEC-OBJECT") })
	if len(objects) == 0 {
		report.add(SeverityWarning, "no SPEC-OBJECT elements")
	}

	seen := make(map[string]bool, len(objects))
	unresolved := make(map[string]bool)
	for i, el := range objects {
		id, _ := el.attr("IDENTIFIER")
		id = strings.TrimSpace(id)
		if id == "" {
			report.add(SeverityWarning, "SPEC-OBJECT %d has no IDENTIFIER and will be skipped", i+1)
			continue
		}
		if seen[id] {
			report.add(SeverityError, "duplicate SPEC-OBJECT identifier %s", id)
		}
		seen[id] = true

		for _, c := range el.find(func(n *node) bool { _, ok := containerKind(n); return ok }) {
			ref := definitionRef(c)
			if ref == "" {
				continue
			}
			if _, ok := cat.attributes[ref]; !ok && !unresolved[ref] {
				unresolved[ref] = true
				report.add(SeverityWarning, "attribute definition %s is referenced but not defined", ref)
			}
		}
		for _, ref := range el.find(func(n *node) bool { return n.is("ENUM-VALUE-REF") }) {
			key := strings.TrimSpace(ref.textContent())
			if _, ok := cat.enums[key]; !ok && !unresolved[key] {
				unresolved[key] = true
				report.add(SeverityWarning, "enumeration value %s is referenced but not defined", key)
			}
		}
	}
}
