package sender

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultAfricasTalkingURL = "https://api.sandbox.africastalking.com/version1/messaging"

// atResponse mirrors the XML body returned by the messaging endpoint.
type atResponse struct {
	XMLName        xml.Name `xml:"AfricasTalkingResponse"`
	SMSMessageData struct {
		Recipients struct {
			Recipient []struct {
				Number string `xml:"number"`
				Status string `xml:"status"`
				Cost   string `xml:"cost"`
			} `xml:"Recipient"`
		} `xml:"Recipients"`
	} `xml:"SMSMessageData"`
}

type AfricasTalkingSender struct {
	username   string
	apiKey     string
	from       string
	apiURL     string
	httpClient *http.Client
}

func NewAfricasTalkingSender() (*AfricasTalkingSender, error) {
	username := os.Getenv("AFRICASTALKING_USERNAME")
	apiKey := os.Getenv("AFRICASTALKING_API_KEY")

	if username == "" {
		return nil, fmt.Errorf("AFRICASTALKING_USERNAME not set")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("AFRICASTALKING_API_KEY not set")
	}

	apiURL := os.Getenv("AFRICASTALKING_BASE_URL")
	if apiURL == "" {
		apiURL = defaultAfricasTalkingURL
	}

	from := os.Getenv("AFRICASTALKING_FROM")
	if from == "" {
		from = "2409"
	}

	return &AfricasTalkingSender{
		username:   username,
		apiKey:     apiKey,
		from:       from,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *AfricasTalkingSender) SendSMS(ctx context.Context, to, msg string) (SendResult, error) {
	formData := url.Values{}
	formData.Set("username", s.username)
	formData.Set("to", to)
	formData.Set("message", msg)
	formData.Set("from", s.from)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL,
		strings.NewReader(formData.Encode()))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apiKey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("africastalking request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to read africastalking response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("africastalking error %s: %s", resp.Status, string(respBody))
	}

	var parsed atResponse
	if err := xml.Unmarshal(respBody, &parsed); err != nil {
		return SendResult{}, fmt.Errorf("failed to parse africastalking response: %w", err)
	}

	recipients := parsed.SMSMessageData.Recipients.Recipient
	if len(recipients) == 0 {
		return SendResult{}, fmt.Errorf("africastalking response contained no recipients")
	}

	return SendResult{
		Status: recipients[0].Status,
		Cost:   recipients[0].Cost,
	}, nil
}
