package app

import (
	"io"
	"mime/multipart"
)

// imagesField is the multipart field carrying the uploaded photos. The
// React-Native-Web client sometimes submits it with an array suffix, so
// both spellings are accepted.
const imagesField = "imagenes"

// FileDescriptor is one uploaded image in submission order. Dead marks an
// entry whose content never arrived (a zero-byte part, the transport-level
// failure mode of the mobile client); dead entries are skipped during
// ingestion, they do not abort it.
type FileDescriptor struct {
	OriginalName string
	ContentType  string
	SizeBytes    int64
	Dead         bool

	header *multipart.FileHeader
}

// Open returns the uploaded content for storing.
func (d FileDescriptor) Open() (io.ReadCloser, error) {
	return d.header.Open()
}

// NormalizeImages flattens the raw multipart payload into an ordered list
// of file descriptors. Submission order is preserved: it decides which
// photo becomes primary. ErrNoFiles is returned when the field is absent
// entirely, so the caller can reject before opening a transaction.
func NormalizeImages(form *multipart.Form) ([]FileDescriptor, error) {
	if form == nil {
		return nil, ErrNoFiles
	}
	headers := form.File[imagesField]
	if len(headers) == 0 {
		headers = form.File[imagesField+"[]"]
	}
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}
	descriptors := make([]FileDescriptor, 0, len(headers))
	for _, h := range headers {
		descriptors = append(descriptors, FileDescriptor{
			OriginalName: h.Filename,
			ContentType:  h.Header.Get("Content-Type"),
			SizeBytes:    h.Size,
			Dead:         h.Size == 0,
			header:       h,
		})
	}
	return descriptors, nil
}
