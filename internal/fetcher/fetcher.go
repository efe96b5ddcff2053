package fetcher

import (
	"context"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote exports, e.g. a scheduled report link.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// IsRemote reports whether src names an http(s) URL rather than a local path.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// LoadSource loads a table from a local path or, when src is a URL, through f.
// The format of a remote export is detected from the last path segment.
func LoadSource(ctx context.Context, f Fetcher, src string, opts LoadOptions) (*Table, error) {
	if !IsRemote(src) {
		return LoadFile(ctx, src, opts)
	}
	if f == nil {
		return nil, eris.Errorf("fetcher: no http fetcher configured for %s", src)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse url %s", src)
	}

	body, err := f.Download(ctx, src)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", src)
	}
	defer body.Close() //nolint:errcheck

	t, err := LoadReader(ctx, path.Base(u.Path), body, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: load %s", src)
	}
	return t, nil
}
