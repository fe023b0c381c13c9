package practice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest file accepted for documents and attachments.
const MaxUploadSize = 10 << 20

// MIME types accepted for upload.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEJPEG = "image/jpeg"
)

var allowedTypes = map[string]string{
	MIMEPDF:  "pdf",
	MIMEDOCX: "docx",
	MIMEJPEG: "jpg",
}

// Upload is a file offered for storage. Size is the declared size; a
// negative size means unknown.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateUpload checks the declared type and size of a file.
func ValidateUpload(contentType string, size int64) error {
	if _, ok := allowedTypes[normalizeMIME(contentType)]; !ok {
		return ErrUnsupportedFileType
	}
	if size > MaxUploadSize {
		return ErrFileTooLarge
	}
	return nil
}

func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// storageKey returns "<id>.<ext>", taking ext from the file name when it has
// one and from the MIME type otherwise.
func (s *Service) storageKey(fileName, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		ext = allowedTypes[normalizeMIME(contentType)]
	}
	return s.idgen.New() + "." + ext
}

// readUpload validates u and reads its body. No store or blob call is made
// before validation passes.
func readUpload(u Upload) ([]byte, error) {
	if err := ValidateUpload(u.ContentType, u.Size); err != nil {
		return nil, err
	}
	if u.Body == nil {
		return nil, fmt.Errorf("%w: no file uploaded", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(u.Body, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// putBlob stores data under key, encrypting it first when an encryptor is
// enabled. It reports whether the stored blob is encrypted.
func (s *Service) putBlob(ctx context.Context, bucket, key string, data []byte) (bool, error) {
	var body io.Reader = bytes.NewReader(data)
	size := int64(len(data))
	encrypted := s.encryptor != nil && s.encryptor.Enabled()
	if encrypted {
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return false, fmt.Errorf("encrypting upload: %w", err)
		}
		body = &buf
		size = int64(buf.Len())
	}
	if err := s.blobs.Put(ctx, bucket, key, body, size); err != nil {
		return false, fmt.Errorf("storing blob: %w", err)
	}
	return encrypted, nil
}

// removeOrphan deletes a blob whose metadata row could not be written.
func (s *Service) removeOrphan(ctx context.Context, bucket, key string) {
	if err := s.blobs.Delete(ctx, bucket, key); err != nil {
		s.logger.Error("orphaned blob left in storage", "bucket", bucket, "key", key, "error", err)
		return
	}
	s.logger.Warn("removed blob after metadata insert failed", "bucket", bucket, "key", key)
}

// getBlob copies a stored blob to w, decrypting it when encrypted is set.
func (s *Service) getBlob(ctx context.Context, bucket, key string, encrypted bool, dc DecryptionContext, w io.Writer) error {
	if !encrypted {
		if err := s.blobs.Get(ctx, bucket, key, w); err != nil {
			return fmt.Errorf("reading blob: %w", err)
		}
		return nil
	}
	if dc == nil {
		return ErrLocked
	}
	var buf bytes.Buffer
	if err := s.blobs.Get(ctx, bucket, key, &buf); err != nil {
		return fmt.Errorf("reading blob: %w", err)
	}
	if err := dc.Decrypt(&buf, w); err != nil {
		return fmt.Errorf("decrypting blob: %w", err)
	}
	return nil
}
