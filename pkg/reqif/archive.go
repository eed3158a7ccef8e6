package reqif

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
)

// maxEntrySize bounds how much of one archive entry is extracted.
const maxEntrySize = 1 << 30

// isDocumentName reports whether an archive entry or file name is a ReqIF
// document.
func isDocumentName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".reqif")
}

// extractDocument locates the ReqIF entry of a .reqifz archive and returns
// its bytes. The entry is staged in a temporary directory on scratch that is
// removed before returning, on success and on every error path.
func extractDocument(data []byte, scratch afero.Fs) (content []byte, warnings []string, err error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, markf(ErrInvalidArchive, err, "open archive")
	}

	var docs []*zip.File
	var ignored []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if isDocumentName(f.Name) {
			docs = append(docs, f)
			continue
		}
		ignored = append(ignored, f.Name)
	}
	if len(docs) == 0 {
		return nil, nil, errors.WithHint(
			markf(ErrNoDocumentInArchive, nil, "archive has %d entries and none ends in .reqif", len(zr.File)),
			"a .reqifz file must contain at least one .reqif entry")
	}
	if len(docs) > 1 {
		warnings = append(warnings, fmt.Sprintf("archive contains %d ReqIF documents, using %s", len(docs), docs[0].Name))
	}
	if len(ignored) > 0 {
		warnings = append(warnings, fmt.Sprintf("ignored %d non-ReqIF archive entries: %s", len(ignored), strings.Join(ignored, ", ")))
	}

	dir, err := afero.TempDir(scratch, "", "reqifz-")
	if err != nil {
		return nil, warnings, errors.Wrap(err, "create extraction directory")
	}
	defer func() {
		if rmErr := scratch.RemoveAll(dir); rmErr != nil && err == nil {
			err = errors.Wrap(rmErr, "remove extraction directory")
		}
	}()

	target := filepath.Join(dir, path.Base(docs[0].Name))
	if err := stageEntry(scratch, docs[0], target); err != nil {
		return nil, warnings, err
	}
	content, err = afero.ReadFile(scratch, target)
	if err != nil {
		return nil, warnings, errors.Wrapf(err, "read extracted %s", docs[0].Name)
	}
	return content, warnings, nil
}

func stageEntry(scratch afero.Fs, f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return markf(ErrInvalidArchive, err, "open archive entry %s", f.Name)
	}
	defer rc.Close()

	out, err := scratch.Create(target)
	if err != nil {
		return errors.Wrapf(err, "stage %s", f.Name)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return markf(ErrInvalidArchive, err, "extract archive entry %s", f.Name)
	}
	if n > maxEntrySize {
		return markf(ErrInvalidArchive, nil, "archive entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return nil
}
