package api

import (
	"io"

	"github.com/bytedance/sonic"
)

// decodeBody reads a size-limited JSON request body into v, rejecting
// unknown fields.
func decodeBody(body io.Reader, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, todoRequestMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
