// Package sms delivers OTP codes through the Kavenegar verify-lookup API.
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL  string
	APIKey   string
	Template string
	HTTP     *http.Client
}

type lookupResp struct {
	Return struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"return"`
}

func NewClient(baseURL, apiKey, template string) *Client {
	if baseURL == "" {
		baseURL = "https://api.kavenegar.com/v1"
	}
	if template == "" {
		template = "verify"
	}
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Template: template,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SendOTP delivers code to phone via the configured lookup template.
func (c *Client) SendOTP(ctx context.Context, phone, code string) error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("kavenegar: api key is required")
	}

	q := url.Values{}
	q.Set("receptor", phone)
	q.Set("token", code)
	q.Set("template", c.Template)

	endpoint := fmt.Sprintf("%s/%s/verify/lookup.json?%s",
		strings.TrimRight(c.BaseURL, "/"), c.APIKey, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("kavenegar: status %d", resp.StatusCode)
	}

	var decoded lookupResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return err
	}
	if decoded.Return.Status != 200 {
		return fmt.Errorf("kavenegar: %s", decoded.Return.Message)
	}
	return nil
}
