// Package read implements request body readers.
package read

import (
	"bytes"
	"io"

	"github.com/czertainly/cmp-validator/errs"
	"github.com/czertainly/cmp-validator/internal/buffer"
)

// Body reads at most limit bytes from r. Larger bodies are rejected with a
// 413 error and empty bodies with a 400 error.
func Body(r io.Reader, limit int64) ([]byte, error) {
	buf := buffer.Get()
	defer buffer.Put(buf)

	n, err := buf.ReadFrom(io.LimitReader(r, limit+1))
	switch {
	case err != nil:
		return nil, errs.BadRequestErr(err, "error reading request body")
	case n > limit:
		return nil, errs.RequestEntityTooLarge(limit)
	case n == 0:
		return nil, errs.BadRequest("request body is empty")
	}
	return bytes.Clone(buf.Bytes()), nil
}
