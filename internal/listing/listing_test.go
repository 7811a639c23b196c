package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-extractor/internal/httpx"
)

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, rawURL string) (httpx.Response, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return httpx.Response{}, &httpx.FetchError{Status: http.StatusNotFound, Attempts: 1, Err: errors.New("status 404")}
	}
	return httpx.Response{URL: rawURL, Status: http.StatusOK, Body: []byte(body)}, nil
}

func card(href, title string) string {
	return fmt.Sprintf(`<div class="card"><h2><a class="jobTitle" href="%s">%s</a></h2><a href="/bedrijf/x">Bedrijf</a></div>`, href, title)
}

func TestExpand_FollowsPagesUntilNoNewLinks(t *testing.T) {
	base := "https://board.nl/zoeken?q=go"
	f := &fakeFetcher{pages: map[string]string{
		base:                                card("/vacature/1", "Go developer") + card("https://board.nl/vacature/2", "SRE"),
		"https://board.nl/zoeken?page=2&q=go": card("/vacature/3", "Data engineer") + card("/vacature/1", "Go developer"),
		"https://board.nl/zoeken?page=3&q=go": card("/vacature/3", "Data engineer"),
	}}

	got, err := New(f, Options{MaxPages: 10}).Expand(context.Background(), base)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://board.nl/vacature/1",
		"https://board.nl/vacature/2",
		"https://board.nl/vacature/3",
	}, got)
	assert.Len(t, f.calls, 3)
}

func TestExpand_StopsAtMaxPages(t *testing.T) {
	base := "https://board.nl/zoeken"
	f := &fakeFetcher{pages: map[string]string{
		base:                            card("/vacature/1", "a"),
		"https://board.nl/zoeken?page=2": card("/vacature/2", "b"),
		"https://board.nl/zoeken?page=3": card("/vacature/3", "c"),
	}}

	got, err := New(f, Options{MaxPages: 2}).Expand(context.Background(), base)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://board.nl/vacature/1", "https://board.nl/vacature/2"}, got)
}

func TestExpand_LaterPageFailureKeepsLinks(t *testing.T) {
	base := "https://board.nl/zoeken"
	f := &fakeFetcher{pages: map[string]string{base: card("/vacature/1", "a")}}

	got, err := New(f, Options{}).Expand(context.Background(), base)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://board.nl/vacature/1"}, got)
}

func TestExpand_FirstPageFailureIsError(t *testing.T) {
	_, err := New(&fakeFetcher{}, Options{}).Expand(context.Background(), "https://board.nl/weg")

	var fe *httpx.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestLinks(t *testing.T) {
	body := []byte(`<html><body>
<a class="jobTitle" href="vacature/7?ref=list">Relative</a>
<a class="jobTitle" href="mailto:hr@acme.nl">Mail</a>
<a class="jobTitle" href="#top">Anchor</a>
<a class="jobTitle">No href</a>
<a class="other" href="/vacature/8">Other</a>
</body></html>`)

	got, err := Links(body, "https://board.nl/it/zoeken", DefaultLinkSelector)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://board.nl/it/vacature/7?ref=list"}, got)

	got, err = Links(body, "https://board.nl/", "a.other")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://board.nl/vacature/8"}, got)
}

func TestPageURL(t *testing.T) {
	got, err := PageURL("https://tweakers.net/carriere/it-banen/zoeken/?page=1#filter:q1ZK", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://tweakers.net/carriere/it-banen/zoeken/?page=3#filter:q1ZK", got)
}

func TestExpand_AgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Query().Get("page") {
		case "":
			_, _ = w.Write([]byte(card("/vacature/1", "a")))
		case "2":
			_, _ = w.Write([]byte(card("/vacature/2", "b")))
		default:
			_, _ = w.Write([]byte("<p>Geen resultaten</p>"))
		}
	}))
	defer srv.Close()

	fetcher := httpx.NewCollyFetcher(httpx.Options{Timeout: 2 * time.Second, MaxAttempts: 1})
	got, err := New(fetcher, Options{}).Expand(context.Background(), srv.URL+"/zoeken")

	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/vacature/1", srv.URL + "/vacature/2"}, got)
}
