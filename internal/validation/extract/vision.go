package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// JPEG and PNG magic bytes for image detection
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// VisionExtractor extracts document fields by sending images to the
// vision extraction service.
type VisionExtractor struct {
	visionURL  string
	httpClient *http.Client
}

// NewVisionExtractor creates an extractor that calls the given vision service URL.
func NewVisionExtractor(visionURL string, timeout time.Duration) *VisionExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second // vision inference can take 10-20s
	}
	return &VisionExtractor{
		visionURL: visionURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (e *VisionExtractor) Name() string { return "vision" }

// CanExtract: the vision service handles every document slot.
func (e *VisionExtractor) CanExtract(slot string) bool { return true }

func (e *VisionExtractor) Extract(ctx context.Context, data []byte, slot string) (*domain.ExtractionResult, error) {
	if !isImageData(data) {
		return nil, fmt.Errorf("vision: data is not a JPEG or PNG image, skipping")
	}

	// Build multipart request
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "document.bin")
	if err != nil {
		return nil, fmt.Errorf("vision: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("vision: write image data: %w", err)
	}
	if err := writer.WriteField("document_type", slot); err != nil {
		return nil, fmt.Errorf("vision: write document_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("vision: close multipart writer: %w", err)
	}

	url := e.visionURL + "/api/v1/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vision: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision: extraction service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var visionResp visionExtractionResponse
	if err := json.Unmarshal(respBody, &visionResp); err != nil {
		return nil, fmt.Errorf("vision: parse response: %w", err)
	}

	fields := make(map[string]string, len(visionResp.Fields))
	for _, f := range visionResp.Fields {
		fields[f.Key] = f.Value
	}

	return &domain.ExtractionResult{
		Slot:             slot,
		Status:           domain.ExtractionOK,
		Fields:           fields,
		ClarityScore:     visionResp.ClarityScore,
		Method:           domain.MethodPrimary,
		Warnings:         visionResp.Warnings,
		ProcessingTimeMs: visionResp.ProcessingTimeMs,
	}, nil
}

// isImageData checks for JPEG or PNG magic bytes at the start of the data.
func isImageData(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	return bytes.HasPrefix(data, jpegMagic) || bytes.HasPrefix(data, pngMagic)
}

// visionExtractionResponse mirrors the extraction service response body.
type visionExtractionResponse struct {
	DocumentType     string        `json:"document_type"`
	Fields           []visionField `json:"fields"`
	ClarityScore     float64       `json:"clarity_score"`
	Warnings         []string      `json:"warnings"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

type visionField struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}
