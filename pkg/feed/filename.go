package feed

import (
	"net/url"
	"strings"
)

// DefaultFilename is used when the source URL has no usable host
const DefaultFilename = "feed.xml"

// Filename makes a download file name from the source URL host,
// i.e. "https://www.example.co/page" becomes "example_co_feed.xml".
func Filename(sourceURL string) string {
	u, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return DefaultFilename
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return DefaultFilename
	}
	return strings.ReplaceAll(host, ".", "_") + "_feed.xml"
}
