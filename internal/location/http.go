package location

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/placepulse/fencewatch/internal/model"
)

// HTTPProvider polls a JSON endpoint returning {"latitude": .., "longitude": ..},
// the shape emitted by gpsd-style bridges and phone companion apps.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider creates a provider polling the given URL.
func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Current(ctx context.Context) (model.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "location: create request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return model.Coordinate{}, eris.Wrap(err, "location: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.Coordinate{}, eris.Errorf("location: provider returned status %d", resp.StatusCode)
	}

	var coord model.Coordinate
	if err := json.NewDecoder(resp.Body).Decode(&coord); err != nil {
		return model.Coordinate{}, eris.Wrap(err, "location: decode response")
	}
	return coord, nil
}
