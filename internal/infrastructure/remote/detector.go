// Package remote подключает детекторы, развёрнутые отдельными HTTP-сервисами.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"censor-bot/internal/domain/entity"
	"censor-bot/internal/domain/port"
)

// Detector отправляет кадр сервису в multipart-форме и получает список областей.
//
// Ответ сервиса:
//
//	{"detections":[{"class":"cigarette","box":{"x1":0,"y1":0,"x2":10,"y2":10},"score":0.9}]}
type Detector struct {
	name   string
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
}

type detectResponse struct {
	Detections []entity.DetectedRegion `json:"detections"`
}

// NewDetector создаёт плагин name, обращающийся к сервису по url.
func NewDetector(name, url, token string, client *http.Client, logger *slog.Logger) *Detector {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		name:   name,
		url:    url,
		token:  token,
		client: client,
		logger: logger.With("component", "remote_detector", "plugin", name),
	}
}

func (d *Detector) Name() string {
	return d.name
}

func (d *Detector) Modality() entity.Modality {
	return entity.ModalityVisual
}

// Detect кодирует кадр в JPEG и отправляет его сервису.
func (d *Detector) Detect(ctx context.Context, frame image.Image) ([]entity.DetectedRegion, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, err
	}
	if err := jpeg.Encode(part, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	res, err := d.client.Do(req)
	if err != nil {
		return nil, entity.WrapCall("remote detect", fmt.Errorf("%s request failed: %w", d.name, err))
	}
	defer res.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", d.name, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s request failed statusCode=%d body=%q", d.name, res.StatusCode, truncate(respBytes, 200))
	}

	var resp detectResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", d.name, err)
	}

	bounds := frame.Bounds()
	regions := make([]entity.DetectedRegion, 0, len(resp.Detections))
	for _, r := range resp.Detections {
		r.Box = r.Box.Clamp(bounds.Dx(), bounds.Dy())
		if r.ClassName == "" || r.Box.Empty() {
			continue
		}
		regions = append(regions, r)
	}
	d.logger.Debug("remote detection done", "regions", len(regions))
	return regions, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ port.FrameDetector = (*Detector)(nil)
