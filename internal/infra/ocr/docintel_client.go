package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const apiVersion = "2024-11-30"

type Config struct {
	Endpoint string
	APIKey   string
	ModelID  string // 学習済みカスタムモデル
}

// Document Intelligence のRESTクライアント（analyze → Operation-Locationをポーリング）
type DocIntelClient struct {
	cfg          Config
	http         *http.Client
	pollInterval time.Duration
}

// DI
func NewDocIntelClient(cfg Config) *DocIntelClient {
	return &DocIntelClient{
		cfg:          cfg,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: time.Second,
	}
}

type analyzeRequest struct {
	URLSource string `json:"urlSource"`
}

type analyzeOperation struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Documents []struct {
			Fields map[string]struct {
				Content     string `json:"content"`
				ValueString string `json:"valueString"`
			} `json:"fields"`
		} `json:"documents"`
	} `json:"analyzeResult"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze は最初のドキュメントのフィールドを name -> content で返す。
// ドキュメントが1件も無ければ found=false。
func (c *DocIntelClient) Analyze(ctx context.Context, documentURL string) (map[string]string, bool, error) {
	opURL, err := c.submit(ctx, documentURL)
	if err != nil {
		return nil, false, err
	}

	op, err := c.poll(ctx, opURL)
	if err != nil {
		return nil, false, err
	}

	if op.AnalyzeResult == nil || len(op.AnalyzeResult.Documents) == 0 {
		return nil, false, nil
	}

	fields := make(map[string]string)
	for name, f := range op.AnalyzeResult.Documents[0].Fields {
		v := f.Content
		if v == "" {
			v = f.ValueString
		}
		fields[name] = v
	}
	return fields, true, nil
}

func (c *DocIntelClient) submit(ctx context.Context, documentURL string) (string, error) {
	body, err := json.Marshal(analyzeRequest{URLSource: documentURL})
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.ModelID, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return "", fmt.Errorf("docintel analyze: status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	opURL := res.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("docintel analyze: missing Operation-Location")
	}
	return opURL, nil
}

func (c *DocIntelClient) poll(ctx context.Context, opURL string) (analyzeOperation, error) {
	lg := log.WithField("component", "ocr")

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return analyzeOperation{}, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

		res, err := c.http.Do(req)
		if err != nil {
			return analyzeOperation{}, err
		}

		var op analyzeOperation
		decodeErr := json.NewDecoder(res.Body).Decode(&op)
		wait := retryAfter(res.Header.Get("Retry-After"), c.pollInterval)
		res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return analyzeOperation{}, fmt.Errorf("docintel poll: status %d", res.StatusCode)
		}
		if decodeErr != nil {
			return analyzeOperation{}, fmt.Errorf("docintel poll: %w", decodeErr)
		}

		switch op.Status {
		case "succeeded":
			return op, nil
		case "failed", "canceled":
			if op.Error != nil {
				return analyzeOperation{}, fmt.Errorf("docintel %s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
			}
			return analyzeOperation{}, fmt.Errorf("docintel %s", op.Status)
		}

		lg.WithField("status", op.Status).Debug("analyze in progress")

		select {
		case <-ctx.Done():
			return analyzeOperation{}, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Retry-After（秒）があればそれに従う
func retryAfter(h string, def time.Duration) time.Duration {
	if h == "" {
		return def
	}
	sec, err := strconv.Atoi(h)
	if err != nil || sec < 0 {
		return def
	}
	d := time.Duration(sec) * time.Second
	if d > def {
		return d
	}
	return def
}
