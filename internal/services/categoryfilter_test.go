package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manoj0727/Nexify-server/internal/models"
)

func TestNewCategoryClassifierFallsBackToDisabled(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		key      string
		ifaceURL string
		clsURL   string
	}{
		{"empty provider", "", "", "", ""},
		{"explicit disabled", models.ProviderDisabled, "", "", ""},
		{"unknown provider", "SomethingElse", "", "", ""},
		{"textrazor without key", models.ProviderTextRazor, "", "", ""},
		{"interface api without url", models.ProviderInterfaceAPI, "", "", ""},
		{"classifier api without url", models.ProviderClassifierAPI, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCategoryClassifier(tt.provider, tt.key, tt.ifaceURL, tt.clsURL, time.Second)
			assert.IsType(t, DisabledClassifier{}, c)
		})
	}
}

func TestNewCategoryClassifierSelectsConfiguredProvider(t *testing.T) {
	c := NewCategoryClassifier(models.ProviderTextRazor, "key", "", "", time.Second)
	assert.IsType(t, &TextRazorClassifier{}, c)

	c = NewCategoryClassifier(models.ProviderInterfaceAPI, "", "http://localhost:9000/classify", "", time.Second)
	assert.IsType(t, &InterfaceAPIClassifier{}, c)

	c = NewCategoryClassifier(models.ProviderClassifierAPI, "", "", "http://localhost:9001/classify", time.Second)
	assert.IsType(t, &ClassifierAPIClassifier{}, c)
}

func TestDisabledClassifierReturnsNothing(t *testing.T) {
	categories, err := DisabledClassifier{}.Classify(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Nil(t, categories)
}

func TestInterfaceAPIClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text":"weekend football highlights"}`, string(body))
		json.NewEncoder(w).Encode(map[string][]string{"labels": {"Sports", "Entertainment"}})
	}))
	defer srv.Close()

	c := &InterfaceAPIClassifier{Endpoint: srv.URL, Client: srv.Client()}
	categories, err := c.Classify(context.Background(), "weekend football highlights")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sports", "Entertainment"}, categories)
}

func TestInterfaceAPIClassifierNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &InterfaceAPIClassifier{Endpoint: srv.URL, Client: srv.Client()}
	_, err := c.Classify(context.Background(), "anything")
	assert.Error(t, err)
}

func TestClassifierAPIClassifierFiltersLowConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"categories": []map[string]interface{}{
				{"name": "Technology", "confidence": 0.91},
				{"name": "Business", "confidence": 0.55},
				{"name": "Politics", "confidence": 0.12},
			},
		})
	}))
	defer srv.Close()

	c := &ClassifierAPIClassifier{Endpoint: srv.URL, Client: srv.Client()}
	categories, err := c.Classify(context.Background(), "startup launches new chip")
	require.NoError(t, err)
	assert.Equal(t, []string{"Technology", "Business"}, categories)
}
