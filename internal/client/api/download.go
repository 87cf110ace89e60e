package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/ontop/internal/common"
)

// Download fetches a backup through its presigned URL. The URL already
// carries its own authorization, so no token is sent.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp.StatusCode, "download failed: "+resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}
