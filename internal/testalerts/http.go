package testalerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/astrolab/knwatch/internal/domain/model"
)

type classifyResponse struct {
	Verdicts []bool `json:"verdicts"`
}

// Submit posts one batch to the classification endpoint and returns
// the verdict vector.
func Submit(ctx context.Context, client *http.Client, baseURL string, b *model.Batch) ([]bool, error) {
	body, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/v1/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify returned status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding verdicts: %w", err)
	}
	if len(out.Verdicts) != b.Len() {
		return nil, fmt.Errorf("got %d verdicts for %d alerts", len(out.Verdicts), b.Len())
	}
	return out.Verdicts, nil
}
