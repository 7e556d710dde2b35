package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return New(server.URL, 5*time.Second), server
}

func TestBearerHeaderAttachedWhenTokenSet(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]NearbySong{})
	})
	defer server.Close()

	client.SetToken("token-123")
	_, err := client.NearbySongs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	var hasHeader bool
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasHeader = r.Header["Authorization"]
		json.NewEncoder(w).Encode([]NearbySong{})
	})
	defer server.Close()

	_, err := client.NearbySongs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.False(t, hasHeader, "anonymous requests must not carry an Authorization header")
}

func TestClearTokenMakesRequestsAnonymous(t *testing.T) {
	var gotAuth string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]NearbySong{})
	})
	defer server.Close()

	client.SetToken("token-123")
	client.ClearToken()
	_, err := client.NearbySongs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestStatusErrorCarriesBackendMessage(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "ユーザー名を入力してください"})
	})
	defer server.Close()

	_, err := client.SignUp(context.Background(), "a@example.com", "pw", "")
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "ユーザー名を入力してください", statusErr.Message)
	assert.True(t, IsBadRequest(err))
}

func TestStatusErrorWithoutJSONBody(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	})
	defer server.Close()

	_, err := client.Charts(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Empty(t, statusErr.Message)
	assert.False(t, IsBadRequest(err))
}

func TestChartsNormalizesAndDropsBadRecords(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charts", r.URL.Path)
		w.Write([]byte(`[
			{"id": "ZRtdQ81jPUQ", "title": "アイドル", "artist": "YOASOBI"},
			{"title": "no id at all", "artist": "nobody"},
			{"trackVideoId": "H6FUBWGSOIc", "trackTitle": "Bling-Bang-Bang-Born", "artistName": "Creepy Nuts"}
		]`))
	})
	defer server.Close()

	tracks, err := client.Charts(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "ZRtdQ81jPUQ", tracks[0].VideoID)
	assert.Equal(t, "H6FUBWGSOIc", tracks[1].VideoID)
	assert.Equal(t, "Creepy Nuts", tracks[1].Artist)
}

func TestSearchSendsQuery(t *testing.T) {
	var gotQuery string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`[]`))
	})
	defer server.Close()

	_, err := client.Search(context.Background(), "King Gnu")
	require.NoError(t, err)
	assert.Equal(t, "King Gnu", gotQuery)
}

func TestPlaylistDetailNormalizesSnakeCase(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playlists/pl-1", r.URL.Path)
		w.Write([]byte(`{
			"id": "pl-1",
			"title": "お気に入り",
			"songs": [{"track_video_id": "ony539T074w", "track_title": "白日", "artist_name": "King Gnu"}]
		}`))
	})
	defer server.Close()

	detail, err := client.PlaylistDetail(context.Background(), "pl-1")
	require.NoError(t, err)
	assert.Equal(t, "pl-1", detail.ID)
	require.Len(t, detail.Songs, 1)
	assert.Equal(t, "ony539T074w", detail.Songs[0].VideoID)
	assert.Equal(t, "白日", detail.Songs[0].Title)
}

func TestShareSongPostsPayload(t *testing.T) {
	var got ShareRequest
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/songs", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})
	defer server.Close()

	err := client.ShareSong(context.Background(), ShareRequest{
		Title:    "SPECIALZ",
		Artist:   "King Gnu",
		SharedBy: "yamada_taro",
		VideoID:  "mpzI5bC4d-U",
		Lat:      35.68,
		Lng:      139.76,
	})
	require.NoError(t, err)
	assert.Equal(t, "SPECIALZ", got.Title)
	assert.Equal(t, "yamada_taro", got.SharedBy)
	assert.Equal(t, "mpzI5bC4d-U", got.VideoID)
}
