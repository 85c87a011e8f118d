package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// NewCompressionMiddleware gzips responses for clients that send
// Accept-Encoding: gzip. Tiny payloads are passed through uncompressed.
func NewCompressionMiddleware() (func(http.Handler) http.Handler, error) {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ContentTypes([]string{"application/json", "text/plain"}),
	)
	if err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return wrapper(next)
	}, nil
}
