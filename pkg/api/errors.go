package api

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/ssargent/attrdata/pkg/archive"
	"github.com/ssargent/attrdata/pkg/dataerr"
)

var errorKinds = []struct {
	err    error
	name   string
	status int
}{
	{dataerr.ErrInvalidFormat, "invalid_format", http.StatusBadRequest},
	{dataerr.ErrOutOfRange, "out_of_range", http.StatusBadRequest},
	{dataerr.ErrNotAllowed, "not_allowed", http.StatusBadRequest},
	{dataerr.ErrNotResolvable, "not_resolvable", http.StatusBadRequest},
	{dataerr.ErrTypeMismatch, "type_mismatch", http.StatusBadRequest},
	{dataerr.ErrUnknownItem, "unknown_item", http.StatusBadRequest},
	{dataerr.ErrIndexOutOfRange, "index_out_of_range", http.StatusBadRequest},
	{dataerr.ErrSizeMismatch, "size_mismatch", http.StatusBadRequest},
	{dataerr.ErrCorruptEncoding, "corrupt_encoding", http.StatusInternalServerError},
	{dataerr.ErrInvalidSchema, "invalid_schema", http.StatusInternalServerError},
	{dataerr.ErrUnsupportedVersion, "unsupported_version", http.StatusInternalServerError},
	{archive.ErrChecksum, "checksum", http.StatusInternalServerError},
	{archive.ErrNotFound, "not_found", http.StatusNotFound},
}

// classify returns the kind name and HTTP status for err.
func classify(err error) (string, int) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name, k.status
		}
	}
	return "", http.StatusInternalServerError
}

// sendFailure sends err with the status its kind maps to.
func sendFailure(w http.ResponseWriter, err error) {
	kind, status := classify(err)
	sendJSON(w, status, APIResponse{Success: false, Error: err.Error(), Kind: kind})
}
