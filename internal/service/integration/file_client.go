package integration

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// FileClient talks to the external file service that stores the actual
// document files. This service only keeps metadata rows with the file id.
type FileClient interface {
	FileExists(ctx context.Context, fileID string) (bool, error)
	DeleteFile(ctx context.Context, fileID string) error
}

type fileClient struct {
	baseURL        string
	deleteEndpoint string
	timeout        time.Duration
	retryCount     int
	retryDelay     time.Duration
	client         *http.Client
	logger         zerolog.Logger
}

func NewFileClient(baseURL, deleteEndpoint string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger) FileClient {
	return &fileClient{
		baseURL:        baseURL,
		deleteEndpoint: deleteEndpoint,
		timeout:        timeout,
		retryCount:     retryCount,
		retryDelay:     retryDelay,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *fileClient) FileExists(ctx context.Context, fileID string) (bool, error) {
	url := fmt.Sprintf("%s%s/%s", c.baseURL, c.deleteEndpoint, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("file service returned status %d", resp.StatusCode)
	}
}

func (c *fileClient) DeleteFile(ctx context.Context, fileID string) error {
	url := fmt.Sprintf("%s%s/%s", c.baseURL, c.deleteEndpoint, fileID)

	var lastErr error
	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Msg("Retrying file delete")
			time.Sleep(c.retryDelay * time.Duration(i))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
			return nil
		}
		lastErr = fmt.Errorf("file service returned status %d", resp.StatusCode)
	}

	return fmt.Errorf("failed to delete file after %d attempts: %w", c.retryCount+1, lastErr)
}
