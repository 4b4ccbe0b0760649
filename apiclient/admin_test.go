package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresSession(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	c := newTestClient(t, mux, nil)

	err := c.Create(context.Background(), ResourceNews, NewsItem{Title: "x"}, nil)
	require.ErrorIs(t, err, ErrNoSession)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(0), hits.Load())
}

func TestAdmin_ExpiredSessionFailsFast(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, now.Add(-time.Minute))
	c := newTestClient(t, mux, nil, WithToken(token), WithClock(func() time.Time { return now }))

	err := c.Delete(context.Background(), ResourceEvents, "7")
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int32(0), hits.Load())
}

func TestAdmin_UnknownResource(t *testing.T) {
	c := newTestClient(t, http.NewServeMux(), nil, WithToken("opaque"))
	err := c.Delete(context.Background(), Resource("boats"), "1")
	require.ErrorIs(t, err, ErrUnknownResource)
}

func TestAdmin_CreateInvalidatesResourceKeys(t *testing.T) {
	var gotAuth string
	var gotBody NewsItem
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/news", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusCreated, NewsItem{ID: "43", Title: gotBody.Title})
	})

	token := signedToken(t, time.Now().Add(time.Hour))
	c := newTestClient(t, mux, nil, WithToken(token))
	store := c.Store()
	store.Set("news-all", []NewsItem{}, time.Minute)
	store.Set("news-all?category=racing", []NewsItem{}, time.Minute)
	store.Set("news-page-2", []NewsItem{}, time.Minute)
	store.Set("news-42", NewsItem{}, time.Minute)
	store.Set("events-all", []Event{}, time.Minute)

	var created NewsItem
	err := c.Create(context.Background(), ResourceNews, NewsItem{Title: "Club dinner"}, &created)
	require.NoError(t, err)
	assert.Equal(t, "43", created.ID)
	assert.Equal(t, "Club dinner", gotBody.Title)
	assert.Equal(t, "Bearer "+token, gotAuth)

	for _, key := range []string{"news-all", "news-all?category=racing", "news-page-2", "news-42"} {
		_, ok := store.Get(key)
		assert.False(t, ok, key)
	}
	_, ok := store.Get("events-all")
	assert.True(t, ok)
}

func TestAdmin_UpdateAndDelete(t *testing.T) {
	var methods []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.PathValue("id"))
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, Event{ID: r.PathValue("id"), Title: "Moved"})
	})
	c := newTestClient(t, mux, nil, WithToken("opaque-token"))
	store := c.Store()
	ctx := context.Background()

	store.Set("events-7", Event{ID: "7"}, time.Minute)
	var updated Event
	require.NoError(t, c.Update(ctx, ResourceEvents, "7", Event{Title: "Moved"}, &updated))
	assert.Equal(t, "Moved", updated.Title)
	_, ok := store.Get("events-7")
	assert.False(t, ok)

	store.Set("events-all", []Event{}, time.Minute)
	require.NoError(t, c.Delete(ctx, ResourceEvents, "7"))
	_, ok = store.Get("events-all")
	assert.False(t, ok)

	assert.Equal(t, []string{"PUT 7", "DELETE 7"}, methods)
}

func TestAdmin_RejectedMutationKeepsCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/slides/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "editors only"})
	})
	c := newTestClient(t, mux, nil, WithToken("opaque-token"))
	c.Store().Set("slides-all", []Slide{}, time.Minute)

	err := c.Update(context.Background(), ResourceSlides, "s1", Slide{}, nil)
	require.Error(t, err)

	_, ok := c.Store().Get("slides-all")
	assert.True(t, ok)
}

func TestLoginAndParseSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, exp)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "hunter2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	})
	c := newTestClient(t, mux, nil)
	ctx := context.Background()

	_, err := c.Login(ctx, "commodore@club.example", "wrong")
	require.True(t, IsUnauthorized(err))
	assert.Empty(t, c.Token())

	s, err := c.Login(ctx, "commodore@club.example", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, token, c.Token())
	assert.Equal(t, "user-1", s.Subject)
	assert.Equal(t, "commodore@club.example", s.Email)
	assert.Equal(t, []string{"admin"}, s.Roles)
	assert.True(t, s.ExpiresAt.Equal(exp))
	assert.False(t, s.Expired(time.Now()))

	c.Logout()
	assert.Empty(t, c.Token())
}

func TestParseSession_Opaque(t *testing.T) {
	_, err := ParseSession("not-a-jwt")
	assert.Error(t, err)
}

func TestLogin_OpaqueTokenZeroSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, loginResponse{Token: "opaque-session-id"})
	})
	c := newTestClient(t, mux, nil)

	s, err := c.Login(context.Background(), "commodore@club.example", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "opaque-session-id", c.Token())
	assert.Equal(t, Session{}, s)
	assert.True(t, s.ExpiresAt.IsZero())
}
