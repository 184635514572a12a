// Package content produces the texts the bot serves: quotes, jokes and
// facts fetched from free public APIs, and the locally computed daily pack.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "mastbot/pkg/logx"
)

// Kind selects a fetchable content type.
type Kind string

const (
	KindQuote Kind = "quote"
	KindJoke  Kind = "joke"
	KindFact  Kind = "fact"
)

// Fetcher returns formatted HTML text for a content kind, or an error the
// caller renders as a retry prompt.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind) (string, error)
}

const (
	quoteURL = "https://api.quotable.io/quotes/random"
	jokeURL  = "https://v2.jokeapi.dev/joke/Any?safe-mode&type=single,twopart&lang=en"
	factURL  = "https://uselessfacts.jsph.pl/api/v2/facts/random?language=en"
)

// HTTPFetcher hits the public content APIs with a bounded per-request
// timeout so a slow provider cannot stall the dispatcher.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
	log     logx.Logger

	quoteURL string
	jokeURL  string
	factURL  string
}

func NewHTTPFetcher(timeout time.Duration, log logx.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		log:      log,
		quoteURL: quoteURL,
		jokeURL:  jokeURL,
		factURL:  factURL,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, kind Kind) (string, error) {
	switch kind {
	case KindQuote:
		return f.quote(ctx)
	case KindJoke:
		return f.joke(ctx)
	case KindFact:
		return f.fact(ctx)
	default:
		return "", fmt.Errorf("unknown content kind %q", kind)
	}
}

func (f *HTTPFetcher) getJSON(ctx context.Context, url string, out any) error {
	cctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (f *HTTPFetcher) quote(ctx context.Context) (string, error) {
	var data []struct {
		Content string `json:"content"`
		Author  string `json:"author"`
	}
	if err := f.getJSON(ctx, f.quoteURL, &data); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty quote response")
	}
	q := data[0].Content
	if q == "" {
		q = "No quote found."
	}
	a := data[0].Author
	if a == "" {
		a = "Unknown"
	}
	return fmt.Sprintf("💡 <b>Quote</b>\n\n“%s”\n— <i>%s</i>", q, a), nil
}

func (f *HTTPFetcher) joke(ctx context.Context) (string, error) {
	var data struct {
		Error    bool   `json:"error"`
		Type     string `json:"type"`
		Joke     string `json:"joke"`
		Setup    string `json:"setup"`
		Delivery string `json:"delivery"`
	}
	if err := f.getJSON(ctx, f.jokeURL, &data); err != nil {
		return "", err
	}
	if data.Error {
		return "", errors.New("joke api returned error")
	}
	if data.Type == "single" {
		j := data.Joke
		if j == "" {
			j = "No joke found."
		}
		return "😂 <b>Joke</b>\n\n" + j, nil
	}
	setup := data.Setup
	if setup == "" {
		setup = "..."
	}
	delivery := data.Delivery
	if delivery == "" {
		delivery = "..."
	}
	return fmt.Sprintf("😂 <b>Joke</b>\n\n%s\n\n<b>%s</b>", setup, delivery), nil
}

func (f *HTTPFetcher) fact(ctx context.Context) (string, error) {
	var data struct {
		Text string `json:"text"`
	}
	if err := f.getJSON(ctx, f.factURL, &data); err != nil {
		return "", err
	}
	text := strings.TrimSpace(data.Text)
	if text == "" {
		text = "No fact found."
	}
	return "🧠 <b>Fact</b>\n\n" + text, nil
}
