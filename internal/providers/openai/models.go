package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"snaptrans/internal/domain"
)

const (
	chatCompletionsSuffix = "/chat/completions"
	modelsSuffix          = "/models"
)

// ModelLister implements ports.ModelLister using the OpenAI SDK.
type ModelLister struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewModelLister(httpClient *http.Client, logger *zap.Logger) *ModelLister {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelLister{httpClient: httpClient, logger: logger}
}

// ListModels fetches the model catalogue next to the chat-completions endpoint.
func (l *ModelLister) ListModels(ctx context.Context, endpoint string, apiKey string) ([]domain.ModelInfo, error) {
	modelsURL := deriveModelsURL(endpoint)
	baseURL, query := splitModelsURL(modelsURL)

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHeader("x-api-key", apiKey),
		option.WithHTTPClient(l.httpClient),
		option.WithMaxRetries(0),
	}
	for key, values := range query {
		for _, value := range values {
			opts = append(opts, option.WithQueryAdd(key, value))
		}
	}
	client := sdk.NewClient(opts...)

	page, err := client.Models.List(ctx)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("Failed to fetch models: %d", apiErr.StatusCode)
		}
		return nil, fmt.Errorf("Failed to fetch models: %w", err)
	}

	models := make([]domain.ModelInfo, 0, len(page.Data))
	for _, model := range page.Data {
		models = append(models, domain.ModelInfo{ID: model.ID, OwnedBy: model.OwnedBy})
	}

	l.logger.Debug("Fetched models", zap.String("url", modelsURL), zap.Int("count", len(models)))
	return models, nil
}

// deriveModelsURL rewrites a trailing /chat/completions path segment to /models.
// Endpoints without that suffix are treated as an API base.
func deriveModelsURL(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return rewritePath(endpoint)
	}

	parsed.Path = rewritePath(parsed.Path)
	parsed.RawPath = ""
	return parsed.String()
}

func rewritePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if strings.HasSuffix(path, chatCompletionsSuffix) {
		return strings.TrimSuffix(path, chatCompletionsSuffix) + modelsSuffix
	}
	if strings.HasSuffix(path, modelsSuffix) {
		return path
	}
	return strings.TrimRight(path, "/") + modelsSuffix
}

// splitModelsURL returns the parent of the models path as the SDK base URL,
// plus the query the SDK would otherwise drop.
func splitModelsURL(modelsURL string) (string, url.Values) {
	parsed, err := url.Parse(modelsURL)
	if err != nil {
		return strings.TrimSuffix(modelsURL, "models"), nil
	}
	query := parsed.Query()
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "models")
	parsed.RawPath = ""
	return parsed.String(), query
}
