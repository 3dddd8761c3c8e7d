package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andreyxaxa/Image-Admin-Panel/pkg/types/errs"
)

const (
	httpPrefix  = "http://"
	httpsPrefix = "https://"
)

// prefix collapses, applied until none matches. The mixed pairs keep the
// inner scheme: that is the one the storage host actually speaks.
var collapses = []struct{ from, to string }{
	{httpPrefix + httpPrefix, httpPrefix},
	{httpsPrefix + httpsPrefix, httpsPrefix},
	{httpPrefix + httpsPrefix, httpsPrefix},
	{httpsPrefix + httpPrefix, httpPrefix},
}

// Normalize cleans up a URL string produced by host rewriting: doubled scheme
// prefixes are collapsed, a missing scheme becomes http, and the result must
// parse as an absolute http(s) URL. Only leading prefixes are collapsed; a
// doubled scheme inside the query is part of a signed URL and stays as is.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("resolver - Normalize - empty: %w", errs.ErrInvalidURL)
	}

	for changed := true; changed; {
		changed = false
		for _, c := range collapses {
			if strings.HasPrefix(s, c.from) {
				s = c.to + strings.TrimPrefix(s, c.from)
				changed = true
			}
		}
	}

	if !strings.HasPrefix(s, httpPrefix) && !strings.HasPrefix(s, httpsPrefix) {
		s = httpPrefix + s
	}

	if err := checkAbsolute(s); err != nil {
		return "", err
	}

	return s, nil
}

// RewriteHost swaps the first occurrence of the storage host the backend
// sees for the one browsers can reach.
func RewriteHost(raw, internalHost, publicHost string) string {
	if internalHost == "" || publicHost == "" || !strings.Contains(raw, internalHost) {
		return raw
	}

	return strings.Replace(raw, internalHost, publicHost, 1)
}

func checkAbsolute(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("resolver - checkAbsolute - url.Parse: %w: %w", errs.ErrInvalidURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("resolver - checkAbsolute - %q: %w", s, errs.ErrInvalidURL)
	}

	return nil
}
