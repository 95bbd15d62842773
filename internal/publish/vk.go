package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Wisionflow/algora/internal/httputil"
)

const (
	vkAPI     = "https://api.vk.com/method"
	vkVersion = "5.199"
)

// VK posts to a community wall.
type VK struct {
	token   string
	groupID string
	baseURL string
	client  *http.Client
}

func NewVK(token, groupID string, client *http.Client) *VK {
	if client == nil {
		client = httputil.NewHTTPClientWithTimeout(nil, 30*time.Second)
	}
	return &VK{token: token, groupID: strings.TrimPrefix(groupID, "-"), baseURL: vkAPI, client: client}
}

// WithBaseURL points the publisher at another API host.
func (v *VK) WithBaseURL(u string) *VK {
	v.baseURL = u
	return v
}

func (v *VK) Name() string { return "vk" }

type vkResponse struct {
	Response *struct {
		PostID int64 `json:"post_id"`
	} `json:"response"`
	Error *struct {
		Code int    `json:"error_code"`
		Msg  string `json:"error_msg"`
	} `json:"error"`
}

// Publish creates a wall post from the group. The source link is attached
// so VK renders its preview.
func (v *VK) Publish(ctx context.Context, msg Message) (string, error) {
	if v.token == "" || v.groupID == "" {
		return "", ErrNotConfigured
	}
	form := url.Values{}
	form.Set("access_token", v.token)
	form.Set("v", vkVersion)
	form.Set("owner_id", "-"+v.groupID)
	form.Set("from_group", "1")
	form.Set("message", PlainText(msg.Text))
	if msg.LinkURL != "" {
		form.Set("attachments", msg.LinkURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/wall.post", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vk wall.post: %w", err)
	}
	defer resp.Body.Close()
	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return "", err
	}
	var out vkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("vk wall.post: decode: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("vk wall.post: error %d: %s", out.Error.Code, out.Error.Msg)
	}
	if out.Response == nil {
		return "", fmt.Errorf("vk wall.post: empty response")
	}
	return strconv.FormatInt(out.Response.PostID, 10), nil
}
