package ident

import (
	"fmt"
	"strings"

	"github.com/w-h-a/pdfrag/errs"
)

// Valid rejects identifiers that cannot safely become a file name or key.
func Valid(id string) error {
	if len(strings.TrimSpace(id)) == 0 {
		return fmt.Errorf("%w: empty identifier", errs.ErrInvalid)
	}

	if len(id) > 128 {
		return fmt.Errorf("%w: identifier longer than 128 bytes", errs.ErrInvalid)
	}

	if id == "." || id == ".." || strings.ContainsAny(id, `/\`+"\x00") {
		return fmt.Errorf("%w: identifier %q contains path characters", errs.ErrInvalid, id)
	}

	return nil
}
