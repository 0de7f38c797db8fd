package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/api/chat", Endpoint("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/api/chat", Endpoint("http://localhost:8080/"))
}

func TestClientSendsRequestBody(t *testing.T) {
	var got Request
	var gotPath, gotContentType, gotRequestID string
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"reply":"hi"}`))
	})

	c := NewClient(srv.URL + "/")
	resp, err := c.Send(context.Background(), Request{Prompt: "p", MCPServerURL: "http://m/mcp", AccessToken: "t"})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Reply)
	assert.Equal(t, "/api/chat", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, Request{Prompt: "p", MCPServerURL: "http://m/mcp", AccessToken: "t"}, got)
}

func TestRequestOmitsBlankOrgID(t *testing.T) {
	data, err := json.Marshal(Request{Prompt: "p", AccessToken: "t"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "orgId")

	data, err = json.Marshal(Request{Prompt: "p", AccessToken: "t", OrgID: "org"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"orgId":"org"`)
}

func TestClientHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", 500, `{"error":"boom"}`, "boom"},
		{"no error field", 502, `{}`, "HTTP 502"},
		{"not json", 503, `<html>bad gateway</html>`, "HTTP 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := NewClient(srv.URL).Send(context.Background(), Request{Prompt: "p", AccessToken: "t"})
			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.want, httpErr.Error())
		})
	}
}

func TestClientMalformedSuccessBody(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	_, err := NewClient(srv.URL).Send(context.Background(), Request{Prompt: "p", AccessToken: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(srv.URL)
	c.Timeout = 50 * time.Millisecond
	_, err := c.Send(context.Background(), Request{Prompt: "p", AccessToken: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// fakeSender records calls and optionally blocks until released.
type fakeSender struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	resp    *Response
	err     error
	last    Request
}

func (f *fakeSender) Send(ctx context.Context, req Request) (*Response, error) {
	f.calls.Add(1)
	f.last = req
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func TestSubmitSuccess(t *testing.T) {
	sender := &fakeSender{resp: &Response{Reply: "hello", ToolCalls: []ToolCall{}}}
	s := NewSession(sender, Credentials{MCPServerURL: "http://m/mcp", AccessToken: " tok ", OrgID: " "}, nil)

	msg, err := s.Submit(context.Background(), "  hi there ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, Message{Role: RoleUser, Content: "hi there"}, transcript[0])
	assert.Equal(t, RoleAssistant, transcript[1].Role)
	assert.Equal(t, "hello", transcript[1].Content)
	assert.False(t, transcript[1].IsError)

	assert.Equal(t, Request{Prompt: "hi there", MCPServerURL: "http://m/mcp", AccessToken: "tok"}, sender.last)
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.LastError())
}

func TestSubmitAttachesToolCalls(t *testing.T) {
	calls := []ToolCall{{Name: "cc_list_address_books", Result: `{"ok":true}`}}
	s := NewSession(&fakeSender{resp: &Response{ToolCalls: calls}}, Credentials{AccessToken: "t"}, nil)

	msg, err := s.Submit(context.Background(), "list")
	require.NoError(t, err)
	assert.Equal(t, "", msg.Content)
	assert.Equal(t, calls, msg.ToolCalls)
}

func TestSubmitEmptyPromptIsNoop(t *testing.T) {
	sender := &fakeSender{resp: &Response{}}
	s := NewSession(sender, Credentials{AccessToken: "t"}, nil)

	for _, p := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), p)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}
	assert.Empty(t, s.Transcript())
	assert.Zero(t, sender.calls.Load())
}

func TestSubmitWithoutTokenIsNoop(t *testing.T) {
	sender := &fakeSender{resp: &Response{}}
	s := NewSession(sender, Credentials{AccessToken: "  "}, nil)
	assert.False(t, s.Ready())

	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, s.Transcript())
	assert.Zero(t, sender.calls.Load())

	s.SetCredentials(Credentials{AccessToken: "t"})
	assert.True(t, s.Ready())
}

func TestSubmitWhileSendingIsNoop(t *testing.T) {
	sender := &fakeSender{
		started: make(chan struct{}),
		release: make(chan struct{}),
		resp:    &Response{Reply: "done"},
	}
	s := NewSession(sender, Credentials{AccessToken: "t"}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()
	<-sender.started
	assert.True(t, s.Sending())

	_, err := s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	require.Len(t, s.Transcript(), 1)

	close(sender.release)
	require.NoError(t, <-done)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "first", transcript[0].Content)
	assert.Equal(t, "done", transcript[1].Content)
	assert.EqualValues(t, 1, sender.calls.Load())
	assert.False(t, s.Sending())
}

func TestSubmitServerError(t *testing.T) {
	srv := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})
	s := NewSession(NewClient(srv.URL), Credentials{AccessToken: "t"}, nil)

	msg, err := s.Submit(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, msg.IsError)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)
	last := transcript[len(transcript)-1]
	assert.True(t, last.IsError)
	assert.Contains(t, last.Content, "boom")
	assert.Equal(t, "Error: boom", last.Content)
	assert.Equal(t, "boom", s.LastError())
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitNetworkErrorThenRecovers(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	s := NewSession(sender, Credentials{AccessToken: "t"}, nil)

	_, err := s.Submit(context.Background(), "one")
	require.Error(t, err)
	assert.Equal(t, "connection refused", s.LastError())

	sender.err = nil
	sender.resp = &Response{Reply: "ok"}
	_, err = s.Submit(context.Background(), "two")
	require.NoError(t, err)
	assert.Empty(t, s.LastError())
	assert.Len(t, s.Transcript(), 4)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "sending", StateSending.String())
}
