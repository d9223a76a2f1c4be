package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/boardroom/internal/board"
	"github.com/harrylevesque/boardroom/internal/db"
	"github.com/harrylevesque/boardroom/internal/models"
	"github.com/harrylevesque/boardroom/internal/utils"
)

var testNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, db.Repository) {
	t.Helper()
	repo := db.NewMemory(db.WithClock(func() time.Time { return testNow }))
	_, err := db.SeedDemo(context.Background(), repo)
	require.NoError(t, err)

	n := 0
	srv := NewServer(repo,
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string { n++; return fmt.Sprintf("gen-%d", n) }))
	ts := httptest.NewServer(NewRouter(srv))
	t.Cleanup(ts.Close)
	return ts, repo
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(v)
	case []byte:
		rd = bytes.NewReader(v)
	default:
		b, err := json.Marshal(v)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type itemEnvelope struct {
	Item models.BoardItem `json:"item"`
}

type boardEnvelope struct {
	Board models.Board `json:"board"`
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, "GET", ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))
}

func TestLoadDemo(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, "GET", ts.URL+"/api/boards/load-demo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[struct {
		Board models.Board       `json:"board"`
		Items []models.BoardItem `json:"items"`
	}](t, body)
	assert.Equal(t, db.DemoBoardID, got.Board.ID)
	assert.Equal(t, "Strategic Planning Board", got.Board.Name)
	require.Len(t, got.Items, 4)
	assert.Equal(t, "Q4 Revenue Target", got.Items[0].Title)
	assert.Equal(t, models.Position{X: 500, Y: 100}, got.Items[2].Position)
}

func TestCreateItem_Defaults(t *testing.T) {
	ts, repo := newTestServer(t)
	resp, body := do(t, "POST", ts.URL+"/api/boards/items", `{"type":"note","title":"Pricing","position":{"x":1,"y":2}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	it := decode[itemEnvelope](t, body).Item
	assert.Equal(t, "gen-1", it.ID)
	assert.Equal(t, db.DemoBoardID, it.BoardID)
	assert.Equal(t, models.ColorGold, it.Color)
	assert.Equal(t, models.PriorityMedium, it.Priority)
	assert.Equal(t, models.StatusTodo, it.Status)
	assert.Equal(t, "", it.Content)
	assert.Equal(t, []string{}, it.Tags)
	assert.Equal(t, testNow, it.CreatedAt)

	stored, err := repo.GetItem(context.Background(), it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pricing", stored.Title)
}

func TestCreateItem_ClientIDAndConflicts(t *testing.T) {
	ts, _ := newTestServer(t)
	item := `{"id":"client-1","type":"task","title":"From workspace"}`

	resp, body := do(t, "POST", ts.URL+"/api/boards/items", item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "client-1", decode[itemEnvelope](t, body).Item.ID)

	resp, body = do(t, "POST", ts.URL+"/api/boards/items", item)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	apiErr := decode[utils.APIError](t, body)
	assert.Equal(t, http.StatusConflict, apiErr.Code)

	resp, _ = do(t, "POST", ts.URL+"/api/boards/items", `{"type":"sticky","title":"X"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/boards/items", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/boards/items", `{"type":"task","title":"X","board_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatchAndDeleteItem(t *testing.T) {
	ts, _ := newTestServer(t)
	id := "adfb2d60-09a7-410f-8665-52e40c0d268c"

	resp, body := do(t, "PATCH", ts.URL+"/api/boards/items/"+id, `{"status":"in-progress","position":{"x":9,"y":8}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	it := decode[itemEnvelope](t, body).Item
	assert.Equal(t, models.StatusInProgress, it.Status)
	assert.Equal(t, models.Position{X: 9, Y: 8}, it.Position)
	assert.Equal(t, "Market Research", it.Title)
	assert.Equal(t, testNow, it.UpdatedAt)

	resp, _ = do(t, "PATCH", ts.URL+"/api/boards/items/"+id, `{"status":"done"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "PATCH", ts.URL+"/api/boards/items/ghost", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, "DELETE", ts.URL+"/api/boards/items/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	resp, _ = do(t, "DELETE", ts.URL+"/api/boards/items/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoards_CRUDAndTransfer(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, "POST", ts.URL+"/api/boards", CreateBoardRequest{Name: "OKRs", Type: models.BoardOKR})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[boardEnvelope](t, body).Board
	assert.Equal(t, "gen-1", created.ID)

	resp, body = do(t, "GET", ts.URL+"/api/boards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[struct {
		Boards []models.Board `json:"boards"`
	}](t, body)
	assert.Len(t, list.Boards, 2)

	resp, body = do(t, "GET", ts.URL+"/api/boards/"+db.DemoBoardID+"/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), db.DemoBoardID)
	exported, err := board.DecodeExport(body)
	require.NoError(t, err)
	assert.Len(t, exported.Items, 4)

	resp, _ = do(t, "DELETE", ts.URL+"/api/boards/"+db.DemoBoardID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, "GET", ts.URL+"/api/boards/"+db.DemoBoardID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, "POST", ts.URL+"/api/boards/import", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = do(t, "GET", ts.URL+"/api/boards/"+db.DemoBoardID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[boardEnvelope](t, body).Board.Items, 4)

	resp, _ = do(t, "POST", ts.URL+"/api/boards/import", `{"version":9}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutBoard(t *testing.T) {
	ts, _ := newTestServer(t)
	b := models.Board{ID: "ws-1", Name: "From workspace", Items: []models.BoardItem{
		{ID: "w1", Type: models.TypeIdea, Title: "Idea"},
	}}
	resp, body := do(t, "PUT", ts.URL+"/api/boards/ws-1", b)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[boardEnvelope](t, body).Board.Items, 1)

	b.Name = "Renamed"
	b.Items = nil
	resp, body = do(t, "PUT", ts.URL+"/api/boards/ws-1", b)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[boardEnvelope](t, body).Board
	assert.Equal(t, "Renamed", got.Name)
	assert.Empty(t, got.Items)

	resp, _ = do(t, "PUT", ts.URL+"/api/boards/other", b)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoards_MissingNameIsBadRequest(t *testing.T) {
	ts, repo := newTestServer(t)

	resp, body := do(t, "POST", ts.URL+"/api/boards", `{"name":""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	apiErr := decode[utils.APIError](t, body)
	assert.Contains(t, apiErr.Message, "missing name")

	resp, body = do(t, "PUT", ts.URL+"/api/boards/b1", `{"id":"b1","name":"","items":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	_, err := repo.GetBoard(context.Background(), "b1")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestRequestBodies_AreStrict(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := map[string]struct {
		method, path, body string
	}{
		"unknown item field":   {"POST", "/api/boards/items", `{"type":"task","title":"X","owner":"sam"}`},
		"trailing item data":   {"POST", "/api/boards/items", `{"type":"task","title":"X"}{"type":"task"}`},
		"unknown patch field":  {"PATCH", "/api/boards/items/3dc19a31-b99f-4bd8-b46e-b2b239f63d56", `{"stauts":"todo"}`},
		"trailing board data":  {"POST", "/api/boards", `{"name":"Plan"} []`},
		"unknown board field":  {"PUT", "/api/boards/b2", `{"id":"b2","name":"Plan","items":[],"owner":"sam"}`},
		"non-numeric position": {"PATCH", "/api/boards/items/3dc19a31-b99f-4bd8-b46e-b2b239f63d56", `{"position":{"x":"NaN","y":0}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := do(t, tc.method, ts.URL+tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
		})
	}

	resp, body := do(t, "POST", ts.URL+"/api/boards/items", "{\"type\":\"task\",\"title\":\"X\"}\n")
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "trailing whitespace is fine: %s", body)
}

func TestPosts(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, "POST", ts.URL+"/api/posts", models.NewPost{Title: "Kickoff", Content: "Agenda", Author: "sam"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	post := decode[struct {
		Post models.Post `json:"post"`
	}](t, body).Post
	assert.Equal(t, models.PostDiscussion, post.Type)

	resp, _ = do(t, "POST", ts.URL+"/api/posts", models.NewPost{Author: "sam"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/posts/"+post.ID+"/replies", ReplyRequest{Author: "lee", Content: "+1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, "POST", ts.URL+"/api/posts/"+post.ID+"/replies", ReplyRequest{Author: "lee"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, "POST", ts.URL+"/api/posts/"+post.ID+"/like", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, "POST", ts.URL+"/api/posts/ghost/like", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, "GET", ts.URL+"/api/posts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[struct {
		Posts []models.Post `json:"posts"`
	}](t, body).Posts
	require.Len(t, feed, 1)
	assert.Equal(t, 1, feed[0].Likes)
	assert.Len(t, feed[0].Replies, 1)
}

func TestRecoverer_TurnsPanicInto500(t *testing.T) {
	srv := NewServer(db.NewMemory())
	r := NewRouter(srv)
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := do(t, "GET", ts.URL+"/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "route not found")
}
