package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/campusblog/internal/config"
)

func TestExtractive(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps leading sentences", func(t *testing.T) {
		s := NewExtractive(40)
		got, err := s.Summarize(ctx, "Title", "Finals start Monday. Sleep well!  Bring two pens and a calculator.")
		require.NoError(t, err)
		assert.Equal(t, "Finals start Monday. Sleep well!", got)
	})

	t.Run("truncates a single long sentence", func(t *testing.T) {
		s := NewExtractive(10)
		got, err := s.Summarize(ctx, "Title", "abcdefghijklmnopqrstuvwxyz")
		require.NoError(t, err)
		assert.Equal(t, 10, utf8.RuneCountInString(got))
		assert.True(t, strings.HasSuffix(got, "…"))
	})

	t.Run("falls back to title", func(t *testing.T) {
		got, err := NewExtractive(0).Summarize(ctx, "Just a title", "   ")
		require.NoError(t, err)
		assert.Equal(t, "Just a title", got)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewExtractive(0).Summarize(cancelled, "t", "c")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPSummarizer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var req chatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-model", req.Model)
			require.Len(t, req.Messages, 2)
			assert.Contains(t, req.Messages[1].Content, "Title: Hello")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  A short summary. "}}]}`))
		}))
		defer srv.Close()

		s, err := NewHTTPSummarizer(HTTPConfig{Endpoint: srv.URL, APIKey: "secret", Model: "test-model"})
		require.NoError(t, err)

		got, err := s.Summarize(context.Background(), "Hello", "World")
		require.NoError(t, err)
		assert.Equal(t, "A short summary.", got)
	})

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
		}))
		defer srv.Close()

		s, err := NewHTTPSummarizer(HTTPConfig{Endpoint: srv.URL})
		require.NoError(t, err)

		_, err = s.Summarize(context.Background(), "Hello", "World")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		_, err := NewHTTPSummarizer(HTTPConfig{Endpoint: "not a url"})
		assert.Error(t, err)
	})
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Summary.Provider = config.SummaryProviderExtractive
	s, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Extractive{}, s)

	cfg.Summary.Provider = config.SummaryProviderHTTP
	cfg.Summary.Endpoint = "http://localhost:9/v1/chat/completions"
	s, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &HTTPSummarizer{}, s)

	cfg.Summary.Provider = "magic"
	_, err = New(cfg)
	assert.Error(t, err)
}

type funcSummarizer func(ctx context.Context, title, content string) (string, error)

func (f funcSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	return f(ctx, title, content)
}

func TestDispatcher(t *testing.T) {
	t.Run("stores summaries", func(t *testing.T) {
		var mu sync.Mutex
		stored := map[int64]string{}

		d := NewDispatcher(NewExtractive(100), 2, time.Second, nil, zerolog.Nop())
		d.SetStore(func(ctx context.Context, job Job, summary string) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			stored[job.PostID] = summary
			return true, nil
		})

		require.NoError(t, d.Dispatch(Job{PostID: 1, Title: "a", Content: "First post."}))
		require.NoError(t, d.Dispatch(Job{PostID: 2, Title: "b", Content: "Second post."}))
		d.Wait()

		assert.Equal(t, map[int64]string{1: "First post.", 2: "Second post."}, stored)
	})

	t.Run("bounds concurrency", func(t *testing.T) {
		var running, peak int32
		slow := funcSummarizer(func(ctx context.Context, title, content string) (string, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return "ok", nil
		})

		d := NewDispatcher(slow, 2, time.Second, nil, zerolog.Nop())
		for i := int64(1); i <= 6; i++ {
			require.NoError(t, d.Dispatch(Job{PostID: i}))
		}
		d.Wait()

		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		failing := funcSummarizer(func(ctx context.Context, title, content string) (string, error) {
			return "", errors.New("model offline")
		})
		called := false
		d := NewDispatcher(failing, 1, time.Second, nil, zerolog.Nop())
		d.SetStore(func(ctx context.Context, job Job, summary string) (bool, error) {
			called = true
			return true, nil
		})

		require.NoError(t, d.Dispatch(Job{PostID: 1}))
		d.Wait()
		assert.False(t, called)
	})

	t.Run("shutdown rejects new jobs and cancels stragglers", func(t *testing.T) {
		started := make(chan struct{})
		blocking := funcSummarizer(func(ctx context.Context, title, content string) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		})

		d := NewDispatcher(blocking, 1, time.Minute, nil, zerolog.Nop())
		require.NoError(t, d.Dispatch(Job{PostID: 1}))
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
		assert.ErrorIs(t, d.Dispatch(Job{PostID: 2}), ErrDispatcherClosed)
	})
}
