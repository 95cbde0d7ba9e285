package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/portal"
)

func newTestClient(t *testing.T, r chi.Router) *Client {
	t.Helper()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return New(portal.New(srv.URL, "token-1", 2*time.Second, zap.NewNop()), 0)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestUploadResume(t *testing.T) {
	r := chi.NewRouter()
	r.Post(uploadResumePath, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "Bearer token-1", req.Header.Get("Authorization"))

		file, header, err := req.FormFile(uploadField)
		if !assert.NoError(t, err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "no file"})
			return
		}
		defer file.Close()

		body, _ := io.ReadAll(file)
		assert.Equal(t, "resume.pdf", header.Filename)
		assert.Equal(t, ContentTypePDF, header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(body))

		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": "s1",
			"analysis":   "Strong fit",
			"recommended_jobs": []map[string]any{
				{"id": 1, "title": "Backend Eng", "city": "Remote", "category": "IT"},
			},
		})
	})

	client := newTestClient(t, r)

	analysis, err := client.UploadResume(context.Background(), Resume{
		Filename:    "resume.pdf",
		ContentType: ContentTypePDF,
		Data:        []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Equal(t, "s1", analysis.SessionID)
	assert.Equal(t, "Strong fit", analysis.Analysis)
	assert.Equal(t, []JobSummary{{ID: "1", Title: "Backend Eng", City: "Remote"}}, analysis.RecommendedJobs)
}

func TestUploadResumeRejectsTypeLocally(t *testing.T) {
	calls := 0
	r := chi.NewRouter()
	r.Post(uploadResumePath, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, r)

	_, err := client.UploadResume(context.Background(), Resume{Filename: "resume.txt", ContentType: "text/plain"})
	require.ErrorIs(t, err, ErrInvalidFileType)
	assert.Zero(t, calls)
}

func TestPasteResume(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		expectRaw string
	}{
		{name: "new session", expectRaw: `{"resume_text":"Go developer","session_id":null}`},
		{name: "re-analysis", sessionID: "s1", expectRaw: `{"resume_text":"Go developer","session_id":"s1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post(pasteResumePath, func(w http.ResponseWriter, req *http.Request) {
				body, _ := io.ReadAll(req.Body)
				assert.JSONEq(t, tt.expectRaw, string(body))
				writeJSON(w, http.StatusOK, map[string]any{"session_id": "s1", "analysis": "ok"})
			})

			analysis, err := newTestClient(t, r).PasteResume(context.Background(), "Go developer", tt.sessionID)
			require.NoError(t, err)
			assert.Equal(t, "s1", analysis.SessionID)
			assert.Empty(t, analysis.RecommendedJobs)
			assert.NotNil(t, analysis.RecommendedJobs)
		})
	}
}

func TestPasteResumeErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Post(pasteResumePath, func(w http.ResponseWriter, req *http.Request) {
		var body pasteRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		switch body.ResumeText {
		case "fail":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Failed to analyze resume"})
		case "no-session":
			writeJSON(w, http.StatusOK, map[string]string{"analysis": "orphan"})
		default:
			_, _ = w.Write([]byte("not json"))
		}
	})

	client := newTestClient(t, r)

	_, err := client.PasteResume(context.Background(), "   ", "")
	require.ErrorIs(t, err, ErrEmptyResume)

	_, err = client.PasteResume(context.Background(), "fail", "")
	require.Error(t, err)
	assert.Equal(t, "Failed to analyze resume", portal.Detail(err))

	_, err = client.PasteResume(context.Background(), "no-session", "")
	require.ErrorIs(t, err, ErrMissingSession)

	_, err = client.PasteResume(context.Background(), "garbage", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestChat(t *testing.T) {
	r := chi.NewRouter()
	r.Post(chatPath, func(w http.ResponseWriter, req *http.Request) {
		var body chatRequest
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "s1", body.SessionID)
		writeJSON(w, http.StatusOK, map[string]string{"response": "Yes: " + body.Message})
	})

	client := newTestClient(t, r)

	reply, err := client.Chat(context.Background(), "Any remote jobs?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Yes: Any remote jobs?", reply.Response)
	assert.Equal(t, "s1", reply.SessionID)

	_, err = client.Chat(context.Background(), "hi", "")
	require.ErrorIs(t, err, ErrMissingSession)

	_, err = client.Chat(context.Background(), " ", "s1")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestMalformedResponses(t *testing.T) {
	r := chi.NewRouter()
	r.Post(chatPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"detail": "upstream hiccup"})
	})
	r.Post(pasteResumePath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"session_id": "s1"})
	})

	client := newTestClient(t, r)

	reply, err := client.Chat(context.Background(), "hello", "s1")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, reply)

	analysis, err := client.PasteResume(context.Background(), "Go developer", "")
	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, analysis)
}

func TestChatEmptyResponseIsValid(t *testing.T) {
	r := chi.NewRouter()
	r.Post(chatPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"response": ""})
	})

	reply, err := newTestClient(t, r).Chat(context.Background(), "hello", "s1")
	require.NoError(t, err)
	assert.Empty(t, reply.Response)
}

func TestChatTimeout(t *testing.T) {
	release := make(chan struct{})

	r := chi.NewRouter()
	r.Post(chatPath, func(_ http.ResponseWriter, req *http.Request) {
		_, _ = io.Copy(io.Discard, req.Body)
		select {
		case <-req.Context().Done():
		case <-release:
		}
	})

	client := newTestClient(t, r)
	// runs before the server is closed
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, "Any remote jobs?", "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSessions(t *testing.T) {
	r := chi.NewRouter()
	r.Get(sessionsPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{
				"session_id": "s1",
				"created_at": "2026-10-19T10:00:00+00:00",
				"conversation_history": []map[string]string{
					{"role": "user", "content": "hi"},
					{"role": "assistant", "content": "hello"},
				},
			},
			{"session_id": "s2", "created_at": "bogus"},
		})
	})
	r.Get(healthPath, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	client := newTestClient(t, r)

	sessions, err := client.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 2, sessions[0].ConversationLength)
	assert.Equal(t, 2026, sessions[0].CreatedAt.Year())
	assert.True(t, sessions[1].CreatedAt.IsZero())

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status)
}
