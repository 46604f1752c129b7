package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/config"
)

// ScannedItem is one detection from the OCR microservice.
type ScannedItem struct {
	ItemCode   string  `json:"item_code"`
	Quantity   int     `json:"quantity"`
	Crated     bool    `json:"crated"`
	Confidence float64 `json:"confidence"`
}

type ScanResult struct {
	Items         []ScannedItem `json:"items"`
	OcrConfidence float64       `json:"ocr_confidence"`
}

// ScannerService posts stockpile screenshots to the OCR microservice and
// returns the detected item quantities. The service itself is external;
// this is only its client.
type ScannerService struct {
	Client *http.Client
	URL    string
}

func NewScannerService() *ScannerService {
	return &ScannerService{
		// OCR on a full screenshot routinely takes tens of seconds.
		Client: &http.Client{Timeout: 90 * time.Second},
		URL:    config.ScannerServiceURL,
	}
}

// Scan submits one screenshot and returns the detections.
func (s *ScannerService) Scan(ctx context.Context, filename string, image io.Reader) (*ScanResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+"/scan", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scanner service returned status %d", resp.StatusCode)
	}

	var result ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
