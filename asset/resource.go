package asset

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Timeout for fetching remote scene descriptions.
const fetchTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: fetchTimeout}

// The Resource type wraps a streamable scene description file that is
// either stored locally or served over http/https.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. If relTo is specified and pathToResource does not define a
// scheme, then pathToResource is resolved relative to the directory of relTo.
//
// The caller must close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: invalid path '%s'", pathToResource)
	}

	// Resolve relative paths against the parent resource
	if resURL.Scheme == "" && relTo != nil && !filepath.IsAbs(resURL.Path) {
		if relTo.IsRemote() {
			resURL = relTo.url.ResolveReference(&url.URL{Path: resURL.Path})
		} else {
			prefix, err := filepath.Abs(relTo.url.Path)
			if err != nil {
				return nil, errors.Wrapf(err, "resource: could not detect abs path for %s", relTo.Path())
			}
			resURL.Path = filepath.Join(filepath.Dir(prefix), resURL.Path)
		}
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not open '%s'", resURL.Path)
		}
	case "http", "https":
		resp, err := httpClient.Get(resURL.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not fetch '%s'", resURL.String())
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, err := url.Parse(name)
	if err != nil {
		resURL = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}
