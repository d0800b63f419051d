package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedgen/pkg/feed"
	"github.com/umputun/feedgen/pkg/llm"
	"github.com/umputun/feedgen/pkg/ui/mocks"
)

func TestController_FeedToPretty(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return feed.Clean("```xml\n<rss version=\"2.0\"><channel><title>News</title><item><title>A</title>" +
			"<link>https://example.com/news/a</link></item></channel></rss>\n```"), nil
	}}
	c := NewController(Deps{Fetcher: fetcher})

	s := c.Submit(context.Background(), "https://example.com/news")
	require.Equal(t, PhaseSuccess, s.Phase)
	assert.Equal(t, `<rss version="2.0"><channel><title>News</title><item><title>A</title>`+
		`<link>https://example.com/news/a</link></item></channel></rss>`, s.RawFeed)
	require.Len(t, s.Outcome.Entries, 1)
	assert.Equal(t, "A", s.Outcome.Entries[0].Title)
	assert.Equal(t, ViewPretty, s.View)

	require.Len(t, fetcher.GenerateCalls(), 1)
	assert.Equal(t, "https://example.com/news", fetcher.GenerateCalls()[0].TargetURL)
	assert.Equal(t, s, c.State())
}

func TestController_ConfigurationError(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return "", &llm.ConfigurationError{Setting: "llm.api_key"}
	}}
	c := NewController(Deps{Fetcher: fetcher})

	s := c.Submit(context.Background(), "https://example.com")
	assert.Equal(t, PhaseError, s.Phase)
	assert.Equal(t, MsgConfiguration, s.ErrorMessage)
	assert.Empty(t, s.RawFeed)
}

func TestController_EmptyURL(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		t.Fatal("no request expected")
		return "", nil
	}}
	c := NewController(Deps{Fetcher: fetcher})

	s := c.Submit(context.Background(), "")
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, MsgEmptyURL, s.ErrorMessage)
	assert.Empty(t, fetcher.GenerateCalls())
}

func TestController_DownloadFilename(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return itemsFeed, nil
	}}
	saver := &mocks.SaverMock{SaveFunc: func(name string, data []byte) (string, error) {
		return "/tmp/" + name, nil
	}}
	c := NewController(Deps{Fetcher: fetcher, Saver: saver})

	_, err := c.Download()
	require.ErrorIs(t, err, ErrNoFeed)

	c.Submit(context.Background(), "https://www.example.co/page")
	path, err := c.Download()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/example_co_feed.xml", path)
	require.Len(t, saver.SaveCalls(), 1)
	assert.Equal(t, "example_co_feed.xml", saver.SaveCalls()[0].Name)
	assert.Equal(t, itemsFeed, string(saver.SaveCalls()[0].Data))
}

func TestController_SubmitWhileLoading(t *testing.T) {
	release := make(chan struct{})
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		<-release
		return itemsFeed, nil
	}}
	c := NewController(Deps{Fetcher: fetcher})

	done := make(chan State)
	go func() { done <- c.Submit(context.Background(), "https://example.com") }()
	require.Eventually(t, func() bool { return len(fetcher.GenerateCalls()) == 1 }, time.Second, 5*time.Millisecond)

	s := c.Submit(context.Background(), "https://other.com")
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, "https://example.com", s.URL)

	close(release)
	s = <-done
	assert.Equal(t, PhaseSuccess, s.Phase)
	assert.Len(t, fetcher.GenerateCalls(), 1, "single in-flight request")
}

func TestController_SetView(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return "<rss><channel></channel></rss>", nil
	}}
	c := NewController(Deps{Fetcher: fetcher})
	c.Submit(context.Background(), "https://example.com")

	assert.Equal(t, ViewRaw, c.SetView(ViewPretty).View)
	assert.Equal(t, ViewRaw, c.SetView(ViewRaw).View)
}

func TestController_Copy(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return itemsFeed, nil
	}}
	cb := &mocks.ClipboardMock{WriteAllFunc: func(text string) error { return nil }}
	c := NewController(Deps{Fetcher: fetcher, Clipboard: cb, CopyAck: 20 * time.Millisecond})

	require.ErrorIs(t, c.Copy(), ErrNoFeed)
	assert.Empty(t, cb.WriteAllCalls())

	c.Submit(context.Background(), "https://example.com")
	require.NoError(t, c.Copy())
	assert.True(t, c.State().Copied)
	require.Len(t, cb.WriteAllCalls(), 1)
	assert.Equal(t, itemsFeed, cb.WriteAllCalls()[0].Text)

	assert.Eventually(t, func() bool { return !c.State().Copied }, time.Second, 5*time.Millisecond)
}

func TestController_CopyFailed(t *testing.T) {
	fetcher := &mocks.FetcherMock{GenerateFunc: func(ctx context.Context, targetURL string) (string, error) {
		return itemsFeed, nil
	}}
	cb := &mocks.ClipboardMock{WriteAllFunc: func(text string) error { return errors.New("no xclip") }}
	c := NewController(Deps{Fetcher: fetcher, Clipboard: cb})
	c.Submit(context.Background(), "https://example.com")

	err := c.Copy()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no xclip")
	assert.False(t, c.State().Copied)
}

func TestNewController_DefaultCopyAck(t *testing.T) {
	c := NewController(Deps{})
	assert.Equal(t, CopyAckInterval, c.CopyAck)
	assert.Equal(t, 2*time.Second, CopyAckInterval)
}

func TestDirSaver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := DirSaver{Dir: dir}.Save("example_com_feed.xml", []byte("<rss/>"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "example_com_feed.xml"), path)

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, "<rss/>", string(data))

	path, err = DirSaver{Dir: dir}.Save("../escape.xml", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.xml"), path, "name can't leave the dir")
}

func TestSaveFeedAndCopyFeed_NoTarget(t *testing.T) {
	_, err := SaveFeed(nil, "https://example.com", "<rss/>")
	require.Error(t, err)
	require.Error(t, CopyFeed(nil, "<rss/>"))
}
