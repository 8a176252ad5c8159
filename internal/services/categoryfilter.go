package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manoj0727/Nexify-server/internal/models"
)

// CategoryClassifier labels post content with topic categories. Implementations
// wrap external classification services; a nil-safe disabled variant exists for
// deployments without a provider configured.
type CategoryClassifier interface {
	Classify(ctx context.Context, content string) ([]string, error)
}

// DisabledClassifier skips classification entirely.
type DisabledClassifier struct{}

func (DisabledClassifier) Classify(ctx context.Context, content string) ([]string, error) {
	return nil, nil
}

// NewCategoryClassifier builds the classifier selected by configuration.
// Unknown or empty providers fall back to the disabled variant.
func NewCategoryClassifier(provider, textRazorKey, interfaceURL, classifierURL string, timeout time.Duration) CategoryClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch provider {
	case models.ProviderTextRazor:
		if textRazorKey == "" {
			log.Println("⚠️ TextRazor selected but TEXTRAZOR_API_KEY is empty; category filtering disabled")
			return DisabledClassifier{}
		}
		return &TextRazorClassifier{APIKey: textRazorKey, Client: client}
	case models.ProviderInterfaceAPI:
		if interfaceURL == "" {
			log.Println("⚠️ InterfaceAPI selected but INTERFACE_API_URL is empty; category filtering disabled")
			return DisabledClassifier{}
		}
		return &InterfaceAPIClassifier{Endpoint: interfaceURL, Client: client}
	case models.ProviderClassifierAPI:
		if classifierURL == "" {
			log.Println("⚠️ ClassifierAPI selected but CLASSIFIER_API_URL is empty; category filtering disabled")
			return DisabledClassifier{}
		}
		return &ClassifierAPIClassifier{Endpoint: classifierURL, Client: client}
	case models.ProviderDisabled, "":
		return DisabledClassifier{}
	default:
		log.Printf("⚠️ Unknown category filter provider %q; category filtering disabled", provider)
		return DisabledClassifier{}
	}
}

// TextRazorClassifier calls the TextRazor topics API.
type TextRazorClassifier struct {
	APIKey string
	Client *http.Client
}

func (c *TextRazorClassifier) Classify(ctx context.Context, content string) ([]string, error) {
	form := url.Values{}
	form.Set("text", content)
	form.Set("extractors", "topics")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.textrazor.com/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-TextRazor-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("textrazor returned status %d", resp.StatusCode)
	}

	var body struct {
		Response struct {
			Topics []struct {
				Label string  `json:"label"`
				Score float64 `json:"score"`
			} `json:"topics"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var categories []string
	for _, topic := range body.Response.Topics {
		if topic.Score >= 0.5 {
			categories = append(categories, topic.Label)
		}
		if len(categories) == 5 {
			break
		}
	}
	return categories, nil
}

// InterfaceAPIClassifier posts content to a self-hosted classification endpoint
// that returns {"labels": [...]}.
type InterfaceAPIClassifier struct {
	Endpoint string
	Client   *http.Client
}

func (c *InterfaceAPIClassifier) Classify(ctx context.Context, content string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interface api returned status %d", resp.StatusCode)
	}

	var body struct {
		Labels []string `json:"labels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Labels, nil
}

// ClassifierAPIClassifier posts content to a hosted zero-shot classifier that
// returns {"categories": [{"name": ..., "confidence": ...}]}.
type ClassifierAPIClassifier struct {
	Endpoint string
	Client   *http.Client
}

func (c *ClassifierAPIClassifier) Classify(ctx context.Context, content string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier api returned status %d", resp.StatusCode)
	}

	var body struct {
		Categories []struct {
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
		} `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var categories []string
	for _, cat := range body.Categories {
		if cat.Confidence >= 0.5 {
			categories = append(categories, cat.Name)
		}
	}
	return categories, nil
}
