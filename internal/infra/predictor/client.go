package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
	"github.com/Krishna2005-yadav/Crop-System/internal/core/port"
)

const tracerName = "github.com/Krishna2005-yadav/Crop-System/internal/infra/predictor"

// ErrModelUnavailable is returned when no model endpoint is configured or the endpoint cannot be reached.
var ErrModelUnavailable = errors.New("predictor: model unavailable")

const maxResponseBytes = 1 << 20

// HTTPModelClient talks to model serving endpoints over JSON.
type HTTPModelClient struct {
	recommenderURL string
	classifierURL  string
	client         *http.Client
	tracer         trace.Tracer
}

// NewHTTPModelClient builds a client with the given per-request timeout.
func NewHTTPModelClient(recommenderURL, classifierURL string, timeout time.Duration) *HTTPModelClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPModelClient{
		recommenderURL: strings.TrimSpace(recommenderURL),
		classifierURL:  strings.TrimSpace(classifierURL),
		client:         &http.Client{Timeout: timeout},
		tracer:         otel.Tracer(tracerName),
	}
}

type recommendRequest struct {
	Features []float64 `json:"features"`
}

type recommendResponse struct {
	Crop       string `json:"crop"`
	ClassIndex *int   `json:"class_index"`
}

type classifyResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// RecommendCrop sends the five soil features in model order and resolves the returned class.
func (c *HTTPModelClient) RecommendCrop(ctx context.Context, sample domain.SoilSample) (string, error) {
	if c.recommenderURL == "" {
		return "", ErrModelUnavailable
	}

	ctx, span := c.tracer.Start(ctx, "predictor.RecommendCrop")
	defer span.End()

	body, err := json.Marshal(recommendRequest{
		Features: []float64{sample.Nitrogen, sample.Phosphorus, sample.Potassium, sample.Temperature, sample.PH},
	})
	if err != nil {
		return "", fmt.Errorf("marshal recommend request: %w", err)
	}

	var resp recommendResponse
	if err := c.post(ctx, span, c.recommenderURL, "application/json", body, &resp); err != nil {
		return "", err
	}

	switch {
	case resp.Crop != "":
		span.SetAttributes(attribute.String("crop", resp.Crop))
		return resp.Crop, nil
	case resp.ClassIndex != nil:
		crop := domain.CropName(*resp.ClassIndex)
		span.SetAttributes(attribute.String("crop", crop), attribute.Int("class_index", *resp.ClassIndex))
		return crop, nil
	default:
		err := fmt.Errorf("predictor: recommender response carries no crop")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
}

// ClassifyDisease uploads the raw image and picks the most probable class.
func (c *HTTPModelClient) ClassifyDisease(ctx context.Context, image []byte) (string, float64, error) {
	if c.classifierURL == "" {
		return "", 0, ErrModelUnavailable
	}

	ctx, span := c.tracer.Start(ctx, "predictor.ClassifyDisease", trace.WithAttributes(attribute.Int("image_bytes", len(image))))
	defer span.End()

	var resp classifyResponse
	if err := c.post(ctx, span, c.classifierURL, http.DetectContentType(image), image, &resp); err != nil {
		return "", 0, err
	}

	label, confidence, err := argmax(resp.Probabilities)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", 0, err
	}

	span.SetAttributes(attribute.String("label", label), attribute.Float64("confidence", confidence))
	return label, confidence, nil
}

func argmax(probabilities []float64) (string, float64, error) {
	if len(probabilities) != len(domain.DiseaseClasses) {
		return "", 0, fmt.Errorf("predictor: expected %d probabilities, got %d", len(domain.DiseaseClasses), len(probabilities))
	}

	best := 0
	for i, p := range probabilities {
		if p > probabilities[best] {
			best = i
		}
	}
	return domain.DiseaseClasses[best], probabilities[best] * 100, nil
}

func (c *HTTPModelClient) post(ctx context.Context, span trace.Span, url, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model request failed")
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("%w: status %d", ErrModelUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("predictor: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

var (
	_ port.CropRecommender   = (*HTTPModelClient)(nil)
	_ port.DiseaseClassifier = (*HTTPModelClient)(nil)
)
