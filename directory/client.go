package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-usermanager/models"
)

var (
	// ErrUnavailable covers transport failures and non-2xx answers.
	ErrUnavailable = errors.New("directory unavailable")
	ErrNotFound    = errors.New("directory: user not found")
)

// Client reads users from the remote directory (GET /users, GET /users/{id}).
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, c.baseURL+"/users", &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	if err := c.get(ctx, c.baseURL+"/users/"+strconv.FormatInt(id, 10), &u); err != nil {
		return models.User{}, err
	}
	// jsonplaceholder answers unknown ids with 404, other backends with {}
	if u.ID == 0 {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status: %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
