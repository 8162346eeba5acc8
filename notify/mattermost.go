package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"
)

const mattermostNotifierName = "mattermost"

// MattermostConfig holds settings for the Mattermost channel.
type MattermostConfig struct {
	ServerURL string `yaml:"server_url" env:"MATTERMOST_SERVER_URL"`
	Token     string `yaml:"token" env:"MATTERMOST_TOKEN"`
	ChannelID string `yaml:"channel_id" env:"MATTERMOST_CHANNEL_ID"`
}

// MattermostOption configures a mattermost notifier.
type MattermostOption func(n *mattermostNotifier)

// MattermostWithTimeout sets the HTTP timeout for Mattermost API calls.
// If timeout is 0, it defaults to 30 seconds.
func MattermostWithTimeout(timeout time.Duration) MattermostOption {
	return func(n *mattermostNotifier) {
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		n.client.Timeout = timeout
	}
}

type mattermostNotifier struct {
	client    *http.Client
	serverURL string
	token     string
	channelID string
}

var _ Notifier = &mattermostNotifier{}

// NewMattermostNotifier creates a notifier that uploads the report as a file
// attachment and posts a structured alert message to the configured channel.
func NewMattermostNotifier(config MattermostConfig, opts ...MattermostOption) Notifier {
	n := &mattermostNotifier{
		client:    &http.Client{},
		serverURL: strings.TrimRight(config.ServerURL, "/"),
		token:     config.Token,
		channelID: config.ChannelID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *mattermostNotifier) Name() string {
	return mattermostNotifierName
}

func (n *mattermostNotifier) Deliver(ctx context.Context, alert AlertContext, report []byte) error {
	fileID, err := n.uploadReport(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	if err := n.createPost(ctx, alert, fileID); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (n *mattermostNotifier) uploadReport(ctx context.Context, report []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "performance_report.html")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(report); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/v4/files?channel_id=%s", n.serverURL, n.channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("file upload failed with status %d", resp.StatusCode)
	}

	var uploadResp struct {
		FileInfos []struct {
			ID string `json:"id"`
		} `json:"file_infos"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if len(uploadResp.FileInfos) == 0 {
		return "", fmt.Errorf("upload response contains no file infos")
	}
	return uploadResp.FileInfos[0].ID, nil
}

func (n *mattermostNotifier) createPost(ctx context.Context, alert AlertContext, fileID string) error {
	post := map[string]any{
		"channel_id": n.channelID,
		"message":    formatAlertMessage(alert),
		"file_ids":   []string{fileID},
	}
	body, err := json.Marshal(post)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/v4/posts", n.serverURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("post creation failed with status %d", resp.StatusCode)
	}
	return nil
}

func formatAlertMessage(alert AlertContext) string {
	var b strings.Builder
	b.WriteString("#### Performance alert\n")
	fmt.Fprintf(&b, "- **Endpoint**: %s\n", alert.Endpoint)
	fmt.Fprintf(&b, "- **URL**: %s\n", alert.URL)
	fmt.Fprintf(&b, "- **Execution time**: %.3fs\n", alert.ElapsedSeconds)
	fmt.Fprintf(&b, "- **Alert time**: %s\n", alert.AlertTime.Format(time.RFC3339))

	if len(alert.Params) > 0 {
		keys := make([]string, 0, len(alert.Params))
		for k := range alert.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("- **Parameters**:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s: %s\n", k, alert.Params[k])
		}
	}
	b.WriteString("\nFull profiling report attached.")
	return b.String()
}
