package isa

import "errors"

var (
	// ErrUnknownMnemonic is returned when a mnemonic is not in the catalog.
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	// ErrUnsupportedForm is returned when an operation does not define the requested form.
	ErrUnsupportedForm = errors.New("unsupported form")
	// ErrUnsupportedMnemonic is returned by evaluators for operations they cannot compute.
	ErrUnsupportedMnemonic = errors.New("unsupported mnemonic")
	ErrUnsupportedSEW      = errors.New("unsupported sew")
	ErrUnknownEncoding     = errors.New("unknown encoding")
	ErrNotVector           = errors.New("not an OP-V instruction")
)
