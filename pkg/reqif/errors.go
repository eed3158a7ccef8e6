package reqif

import "github.com/cockroachdb/errors"

// Error kinds surfaced by Parse, ParseFile and ValidateFile. Callers test
// with errors.Is; the returned errors carry path and cause details on top.
var (
	ErrFileNotFound        = errors.New("file not found")
	ErrUnsupportedFormat   = errors.New("unsupported format")
	ErrInvalidArchive      = errors.New("invalid archive")
	ErrNoDocumentInArchive = errors.New("no ReqIF document in archive")
	ErrMalformedXml        = errors.New("malformed XML")
)

func markf(kind error, cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), kind)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), kind)
}
