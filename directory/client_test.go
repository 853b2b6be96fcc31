package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersJSON = `[
  {
    "id": 1,
    "name": "Leanne Graham",
    "username": "Bret",
    "email": "Sincere@april.biz",
    "address": {
      "street": "Kulas Light",
      "suite": "Apt. 556",
      "city": "Gwenborough",
      "zipcode": "92998-3874",
      "geo": {"lat": "-37.3159", "lng": "81.1496"}
    },
    "phone": "1-770-736-8031 x56442",
    "website": "hildegard.org",
    "company": {
      "name": "Romaguera-Crona",
      "catchPhrase": "Multi-layered client-server neural-net",
      "bs": "harness real-time e-markets"
    }
  },
  {"id": 2, "name": "Ervin Howell", "email": "Shanna@melissa.tv"}
]`

func newDirectory(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(usersJSON))
	})
	mux.HandleFunc("GET /users/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 1, "name": "Leanne Graham", "company": {"name": "Romaguera-Crona"}}`))
	})
	mux.HandleFunc("GET /users/3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /users/4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListUsers(t *testing.T) {
	srv := newDirectory(t)
	c := NewClient(srv.URL+"/", time.Second)

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, int64(1), users[0].ID)
	require.NotNil(t, users[0].Address)
	assert.Equal(t, "Apt. 556", users[0].Address.Suite)
	assert.Equal(t, "81.1496", users[0].Address.Geo.Lng)
	assert.Equal(t, "Multi-layered client-server neural-net", users[0].Company.CatchPhrase)

	assert.Nil(t, users[1].Company)
	assert.Equal(t, "", users[1].CompanyName())
}

func TestClient_GetUser(t *testing.T) {
	srv := newDirectory(t)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	u, err := c.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Romaguera-Crona", u.CompanyName())

	_, err = c.GetUser(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound, "mux answers 404 for unknown routes")

	_, err = c.GetUser(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetUser(ctx, 4)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_CancelledContext(t *testing.T) {
	srv := newDirectory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, time.Second).ListUsers(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
