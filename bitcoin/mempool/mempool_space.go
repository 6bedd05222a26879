package mempool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/40acres/cashu-lnd/bitcoin"
)

const BaseURL = "https://mempool.space/api"

var ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

type Option func(*Options)

func WithURL(url string) func(*Options) {
	return func(s *Options) {
		s.baseURL = url
	}
}

// WithSpeed picks which of the recommended rates RecommendedFeeRate returns.
func WithSpeed(speed bitcoin.Speed) func(*Options) {
	return func(s *Options) {
		s.speed = speed
	}
}

func WithHTTPClient(client *http.Client) func(*Options) {
	return func(s *Options) {
		s.client = client
	}
}

type Options struct {
	baseURL string
	speed   bitcoin.Speed
	client  *http.Client
}

type MempoolSpace struct {
	client    *http.Client
	baseURL   string
	authToken string
	speed     bitcoin.Speed
}

var _ bitcoin.FeeSource = (*MempoolSpace)(nil)

// New creates a new MempoolSpace client
func New(token string, options ...Option) *MempoolSpace {
	opts := Options{
		baseURL: BaseURL,
		speed:   bitcoin.HalfHourFee,
		client:  &http.Client{},
	}
	for _, option := range options {
		option(&opts)
	}

	return &MempoolSpace{
		client:    opts.client,
		baseURL:   opts.baseURL,
		authToken: token,
		speed:     opts.speed,
	}
}

// RecommendedFeeRate returns the configured recommended rate in sat/vB.
func (m *MempoolSpace) RecommendedFeeRate(ctx context.Context) (uint64, error) {
	fee, err := m.GetRecommendedFees(ctx, m.speed)
	if err != nil {
		return 0, err
	}
	if fee <= 0 {
		return 0, fmt.Errorf("%s: %w", m.speed, bitcoin.ErrNoEstimate)
	}

	return uint64(fee), nil
}

func (m *MempoolSpace) GetRecommendedFees(ctx context.Context, speed bitcoin.Speed) (int64, error) {
	req, err := m.makeRequest(ctx, "/v1/fees/recommended")
	if err != nil {
		return 0, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// use readAll to get the error message
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, err
		}

		return 0, fmt.Errorf("unexpected status code: %d: %w, err: %s", resp.StatusCode, ErrUnexpectedStatus, bodyBytes)
	}

	fees := make(map[string]int64)
	if err := json.NewDecoder(resp.Body).Decode(&fees); err != nil {
		return 0, err
	}

	return fees[string(speed)], nil
}

func (m *MempoolSpace) makeRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	if m.authToken != "" {
		req.Header.Set("Authorization", m.authToken)
	}

	return req, nil
}
