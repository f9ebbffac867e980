// Package insight asks an external model for a financial analysis of the
// collection. The response is opaque display content: it is never parsed or
// validated, and every failure degrades to a fixed human-readable message.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scholarflow/scholarflow/internal/student"
)

// Fixed user-facing messages. Failures never propagate past this package.
const (
	MsgKeyMissing  = "API Key is missing. Please configure the environment."
	MsgUnavailable = "Unable to generate insights at this time. Please check your connection."
	MsgEmpty       = "No insights generated."
)

const defaultModel = "gemini-3-flash-preview"
const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Config configures the insight generator.
type Config struct {
	// APIKey authenticates against the model endpoint. An empty key
	// short-circuits to MsgKeyMissing before any call.
	APIKey string
	// Model selects the generation model; defaults to defaultModel.
	Model string
	// GenerateURL overrides the endpoint, primarily for tests. It may
	// contain one %s verb for the model name.
	GenerateURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Generator produces dashboard insight text from the student collection.
type Generator struct {
	cfg Config
	log *zap.Logger
}

// NewGenerator builds an insight generator.
func NewGenerator(cfg Config, logger *zap.Logger) *Generator {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.GenerateURL) == "" {
		cfg.GenerateURL = defaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, log: logger}
}

// studentProjection is the anonymized per-student view sent for analysis.
// No names, contacts, or addresses leave the machine.
type studentProjection struct {
	Fee             float64           `json:"fee"`
	EnrollmentYear  int               `json:"enrollmentYear"`
	Status          student.FeeStatus `json:"status"`
	PaymentCount    int               `json:"paymentCount"`
	LastPaymentDate string            `json:"lastPaymentDate"`
}

func project(students []student.Student, now time.Time) []studentProjection {
	out := make([]studentProjection, 0, len(students))
	for _, s := range students {
		last := "Never"
		if payment, ok := s.LastPayment(); ok {
			last = payment.Date.Format(time.RFC3339)
		}
		out = append(out, studentProjection{
			Fee:             s.MonthlyFee,
			EnrollmentYear:  s.EnrollmentDate.Year(),
			Status:          s.Status(now),
			PaymentCount:    len(s.Payments),
			LastPaymentDate: last,
		})
	}
	return out
}

func buildPrompt(projections []studentProjection) (string, error) {
	data, err := json.Marshal(projections)
	if err != nil {
		return "", fmt.Errorf("marshal analysis data: %w", err)
	}
	return fmt.Sprintf(`You are an academic financial advisor. Analyze the following JSON data representing student fees.

Data: %s

Please provide a concise analysis in HTML format (using <ul>, <li>, <strong> tags only, no markdown blocks).
1. Identify the percentage of overdue payments.
2. Provide a projected revenue for next month based on active students.
3. Give 2 actionable suggestions to improve fee collection based on the patterns (e.g. if many new students are overdue vs old students).

Keep the tone professional and encouraging.`, data), nil
}

// Generate returns insight text for the collection. The result is always a
// displayable string; configuration and transport failures map to the fixed
// fallback messages.
func (g *Generator) Generate(ctx context.Context, students []student.Student, now time.Time) string {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return MsgKeyMissing
	}

	prompt, err := buildPrompt(project(students, now))
	if err != nil {
		g.log.Error("build insight prompt", zap.Error(err))
		return MsgUnavailable
	}

	text, err := g.invoke(ctx, prompt)
	if err != nil {
		g.log.Warn("insight generation failed", zap.Error(err))
		return MsgUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return MsgEmpty
	}
	return text
}

func (g *Generator) invoke(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := g.cfg.GenerateURL
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, g.cfg.Model)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels only as a header and is never echoed in errors.
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return "", fmt.Errorf("read generate error body: %w", err)
		}
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	for _, candidate := range payload.Candidates {
		for _, part := range candidate.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return strings.TrimSpace(part.Text), nil
			}
		}
	}
	return "", nil
}
