package practice

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrUnsupportedFileType = errors.New("invalid file type: only PDF, DOCX, and JPEG files are allowed")
	ErrFileTooLarge        = errors.New("file size exceeds limit")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrUpstream            = errors.New("upstream service failed")
	ErrLocked              = errors.New("content is encrypted and no decryption key is unlocked")
)
