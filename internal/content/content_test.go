package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	logx "mastbot/pkg/logx"
)

func testFetcher(t *testing.T, handler http.HandlerFunc) *HTTPFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewHTTPFetcher(2*time.Second, logx.Nop())
	f.quoteURL = srv.URL
	f.jokeURL = srv.URL
	f.factURL = srv.URL
	return f
}

func TestFetchQuote(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"content":"Stay hungry.","author":"Someone"}]`))
	})

	got, err := f.Fetch(context.Background(), KindQuote)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(got, "Stay hungry.") || !strings.Contains(got, "Someone") {
		t.Fatalf("quote = %q", got)
	}
	if !strings.HasPrefix(got, "💡 <b>Quote</b>") {
		t.Fatalf("quote missing header: %q", got)
	}
}

func TestFetchQuoteFallbacks(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"content":"","author":""}]`))
	})

	got, err := f.Fetch(context.Background(), KindQuote)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(got, "No quote found.") || !strings.Contains(got, "Unknown") {
		t.Fatalf("quote = %q, want placeholders", got)
	}
}

func TestFetchQuoteEmptyList(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	if _, err := f.Fetch(context.Background(), KindQuote); err == nil {
		t.Fatal("empty quote list did not error")
	}
}

func TestFetchJokeSingle(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"type":"single","joke":"A classic."}`))
	})

	got, err := f.Fetch(context.Background(), KindJoke)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "😂 <b>Joke</b>\n\nA classic." {
		t.Fatalf("joke = %q", got)
	}
}

func TestFetchJokeTwopart(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"type":"twopart","setup":"Knock knock.","delivery":"Who?"}`))
	})

	got, err := f.Fetch(context.Background(), KindJoke)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(got, "Knock knock.") || !strings.Contains(got, "<b>Who?</b>") {
		t.Fatalf("joke = %q", got)
	}
}

func TestFetchJokeAPIError(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true}`))
	})

	if _, err := f.Fetch(context.Background(), KindJoke); err == nil {
		t.Fatal("joke api error flag did not surface")
	}
}

func TestFetchFact(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"  Honey never spoils.  "}`))
	})

	got, err := f.Fetch(context.Background(), KindFact)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "🧠 <b>Fact</b>\n\nHoney never spoils." {
		t.Fatalf("fact = %q", got)
	}
}

func TestFetchUpstreamStatus(t *testing.T) {
	t.Parallel()
	f := testFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for _, kind := range []Kind{KindQuote, KindJoke, KindFact} {
		if _, err := f.Fetch(context.Background(), kind); err == nil {
			t.Errorf("Fetch(%s) ignored a 502", kind)
		}
	}
}

func TestFetchUnknownKind(t *testing.T) {
	t.Parallel()
	f := NewHTTPFetcher(time.Second, logx.Nop())
	if _, err := f.Fetch(context.Background(), Kind("weather")); err == nil {
		t.Fatal("unknown kind did not error")
	}
}
