// Package catalog talks to the remote product service: it verifies
// price/stock/merchant offers and applies inventory decrements.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound covers every way a verification can come up empty: no matching
// merchant offer, a malformed payload, or a remote that stayed unreachable
// past the retry budget. Callers treat all of them the same way.
var ErrNotFound = errors.New("product unavailable")

// Snapshot is catalog data captured at verification time. It is only valid
// for the duration of one checkout attempt and is never persisted as-is.
type Snapshot struct {
	Name         string
	Price        float64
	Stock        int
	MerchantName string
	ImageURL     string
}

// Wire types for the product service response. Price and stock are pointers
// so a missing field is distinguishable from a zero value.
type productResponse struct {
	Success bool         `json:"success"`
	Data    *productData `json:"data"`
}

type productData struct {
	Name      string        `json:"name"`
	ImageURLs []string      `json:"imageUrls"`
	Sellers   []sellerOffer `json:"sellers"`
}

type sellerOffer struct {
	MerchantID   string   `json:"merchantId"`
	MerchantName string   `json:"merchantName"`
	Price        *float64 `json:"price"`
	Stock        *int     `json:"stock"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *log.Logger

	// Retry knobs, overridable in tests.
	verifyAttempts int
	reduceAttempts int
	preDelay       time.Duration
	backoffBase    time.Duration
}

func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid product service url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:        u,
		http:           httpClient,
		logger:         logger,
		verifyAttempts: 3,
		reduceAttempts: 2,
		preDelay:       100 * time.Millisecond,
		backoffBase:    250 * time.Millisecond,
	}, nil
}

// Verify fetches the product and scans its seller offers for the given
// merchant (case-insensitive). Transient failures are retried with
// increasing backoff; a definitive miss is not retried.
func (c *Client) Verify(ctx context.Context, productID int64, variantID, merchantID string) (Snapshot, error) {
	reqURL := fmt.Sprintf("%s/%d?variantId=%s", c.baseURL, productID, url.QueryEscape(variantID))

	var lastErr error
	for attempt := 0; attempt < c.verifyAttempts; attempt++ {
		// Fixed delay before every attempt keeps burst load off the remote
		delay := c.preDelay
		if attempt > 0 {
			delay += backoffDelay(c.backoffBase, attempt)
		}
		if err := sleep(ctx, delay); err != nil {
			return Snapshot{}, err
		}

		snap, retryable, err := c.fetchSnapshot(ctx, reqURL, merchantID)
		if err == nil {
			return snap, nil
		}
		if !retryable {
			return Snapshot{}, err
		}
		lastErr = err
		c.logger.Printf("catalog verify attempt %d/%d failed for product %d: %v", attempt+1, c.verifyAttempts, productID, err)
	}

	return Snapshot{}, fmt.Errorf("%w: retries exhausted: %v", ErrNotFound, lastErr)
}

// fetchSnapshot performs one verification round trip. The second return
// value reports whether the failure is worth retrying.
func (c *Client) fetchSnapshot(ctx context.Context, reqURL, merchantID string) (Snapshot, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Snapshot{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return Snapshot{}, true, fmt.Errorf("product service returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return Snapshot{}, false, fmt.Errorf("%w: product service returned %d", ErrNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Snapshot{}, true, err
	}
	if len(body) == 0 {
		return Snapshot{}, true, errors.New("empty response body")
	}

	var pr productResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: malformed payload: %v", ErrNotFound, err)
	}
	if !pr.Success || pr.Data == nil {
		return Snapshot{}, false, ErrNotFound
	}

	for _, seller := range pr.Data.Sellers {
		if !strings.EqualFold(seller.MerchantID, merchantID) {
			continue
		}
		if seller.Price == nil || seller.Stock == nil {
			return Snapshot{}, false, fmt.Errorf("%w: offer missing price or stock", ErrNotFound)
		}

		imageURL := ""
		if len(pr.Data.ImageURLs) > 0 {
			imageURL = pr.Data.ImageURLs[0]
		}
		return Snapshot{
			Name:         pr.Data.Name,
			Price:        *seller.Price,
			Stock:        *seller.Stock,
			MerchantName: seller.MerchantName,
			ImageURL:     imageURL,
		}, false, nil
	}

	return Snapshot{}, false, ErrNotFound
}

// ReduceStock decrements the merchant offer's stock by quantity. Up to two
// attempts with a short fixed delay; the caller decides whether a failure
// is fatal.
func (c *Client) ReduceStock(ctx context.Context, productID int64, variantID, merchantID string, quantity int) error {
	q := url.Values{}
	q.Set("variantId", variantID)
	q.Set("merchantId", merchantID)
	q.Set("quantity", strconv.Itoa(quantity))
	reqURL := fmt.Sprintf("%s/reduce-stock/%d?%s", c.baseURL, productID, q.Encode())

	var lastErr error
	for attempt := 0; attempt < c.reduceAttempts; attempt++ {
		if err := sleep(ctx, c.preDelay); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("product service returned %d", resp.StatusCode)
	}

	return fmt.Errorf("reduce stock for product %d: %w", productID, lastErr)
}
