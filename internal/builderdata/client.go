package builderdata

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
)

const statsBaseURL = "https://stats-data.hyperliquid.xyz"

// NotFoundError indicates a day with no published feed file — a 403 or 404
// from the feed host, which is normal (missing days happen) rather than an
// exceptional failure.
type NotFoundError struct {
	Date string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("builder fills not found for date %s", e.Date)
}

// Client fetches and parses the daily builder-fill feed for one builder
// address.
type Client struct {
	httpClient     *http.Client
	builderAddress string
}

// NewClient constructs a Client for the given builder address. The address
// must start with "0x"; anything else is rejected immediately rather than
// failing on first fetch.
func NewClient(builderAddress string) (*Client, error) {
	addr := strings.ToLower(strings.TrimSpace(builderAddress))
	if !strings.HasPrefix(addr, "0x") {
		return nil, fmt.Errorf("invalid builder address %q: must start with 0x", builderAddress)
	}
	return &Client{
		httpClient:     &http.Client{},
		builderAddress: addr,
	}, nil
}

func (c *Client) buildURL(date time.Time) string {
	return fmt.Sprintf("%s/Mainnet/builder_fills/%s/%s.csv.lz4",
		statsBaseURL, c.builderAddress, date.UTC().Format("20060102"))
}

// FetchForDate retrieves and parses one day's builder-fill feed. A missing
// day (403 or 404) returns a *NotFoundError rather than a generic error.
func (c *Client) FetchForDate(date time.Time) ([]BuilderFill, error) {
	url := c.buildURL(date)

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("builder fills request for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Date: date.UTC().Format("2006-01-02")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("builder fills request for %s: unexpected status %d", url, resp.StatusCode)
	}

	decompressed := lz4.NewReader(resp.Body)
	fills, err := ParseBuilderFills(decompressed)
	if err != nil {
		return nil, fmt.Errorf("builder fills for %s: %w", url, err)
	}
	return fills, nil
}

// FetchRange fetches every day in [fromDate, toDate] inclusive, swallowing
// NotFoundError for individual days and propagating any other error.
// Results are merged and sorted by Time ascending.
func (c *Client) FetchRange(fromDate, toDate time.Time) ([]BuilderFill, error) {
	var all []BuilderFill

	for d := fromDate.UTC().Truncate(24 * time.Hour); !d.After(toDate.UTC().Truncate(24 * time.Hour)); d = d.AddDate(0, 0, 1) {
		fills, err := c.FetchForDate(d)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		all = append(all, fills...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })
	return all, nil
}
