package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{url: "https://www.example.co/page", want: "example_co_feed.xml"},
		{url: "https://example.com/news", want: "example_com_feed.xml"},
		{url: "https://WWW.News.Example.COM:8443/a?b=c", want: "news_example_com_feed.xml"},
		{url: "http://blog.www.example.org", want: "blog_www_example_org_feed.xml"},
		{url: "  https://example.com  ", want: "example_com_feed.xml"},
		{url: "example.com/news", want: DefaultFilename},
		{url: "", want: DefaultFilename},
		{url: "://broken", want: DefaultFilename},
		{url: "https://www./path", want: DefaultFilename},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.url))
		})
	}
}
