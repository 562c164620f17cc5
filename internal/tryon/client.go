package tryon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"tryonhub/pkg/models"
)

// DefaultStylePrompt is sent with single-garment requests.
const DefaultStylePrompt = "realistic virtual try-on with natural lighting"

// Client talks to the image pipeline backend (background removal and the
// generative try-on endpoint).
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		// generation can legitimately take a while
		HTTP: &http.Client{Timeout: 120 * time.Second},
	}
}

// RemoveBackground strips the background from img. Callers treat failure
// as a soft error and keep the original bytes.
func (c *Client) RemoveBackground(ctx context.Context, img []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("remove-bg: build form: %w", err)
	}
	if _, err := fw.Write(img); err != nil {
		return nil, fmt.Errorf("remove-bg: write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("remove-bg: close form: %w", err)
	}

	return c.postImage(ctx, "/api/remove-bg", &buf, mw.FormDataContentType())
}

// GarmentPart is one garment going into a try-on.
type GarmentPart struct {
	Image []byte
	Type  string // models.GarmentUpper or models.GarmentLower
}

// TryOnRequest is a fully resolved submission: all images as raw bytes.
type TryOnRequest struct {
	Avatar      []byte
	Garments    []GarmentPart
	AIModel     string
	StylePrompt string
}

// TryOn runs one generation round trip and returns the composite image.
func (c *Client) TryOn(ctx context.Context, req TryOnRequest) ([]byte, error) {
	if len(req.Garments) == 0 {
		return nil, fmt.Errorf("tryon: no garments in request")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := writeFilePart(mw, "avatar_image", "avatar.png", req.Avatar); err != nil {
		return nil, err
	}

	if len(req.Garments) == 1 {
		g := req.Garments[0]
		if err := writeFilePart(mw, "garment_image", "garment.png", g.Image); err != nil {
			return nil, err
		}
		_ = mw.WriteField("garment_type", formGarmentType(g.Type))
		prompt := req.StylePrompt
		if prompt == "" {
			prompt = DefaultStylePrompt
		}
		_ = mw.WriteField("style_prompt", prompt)
	} else {
		for i, g := range req.Garments {
			n := i + 1
			if err := writeFilePart(mw, fmt.Sprintf("garment_image_%d", n), fmt.Sprintf("garment_%d.png", n), g.Image); err != nil {
				return nil, err
			}
			_ = mw.WriteField(fmt.Sprintf("garment_type_%d", n), formGarmentType(g.Type))
		}
	}

	_ = mw.WriteField("ai_model", req.AIModel)

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("tryon: close form: %w", err)
	}

	return c.postImage(ctx, "/api/tryon-gemini", &buf, mw.FormDataContentType())
}

func writeFilePart(mw *multipart.Writer, field, filename string, data []byte) error {
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("build form part %s: %w", field, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write form part %s: %w", field, err)
	}
	return nil
}

// formGarmentType maps internal garment types onto the pipeline's wire
// vocabulary.
func formGarmentType(t string) string {
	switch t {
	case models.GarmentLower:
		return "bottom"
	default:
		return "top"
	}
}

// postImage sends the form and normalizes the response to raw image
// bytes. The pipeline answers either with the image itself or with a
// JSON envelope carrying a data URI / base64 payload.
func (c *Client) postImage(ctx context.Context, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, truncate(string(raw), 200))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return decodeImageEnvelope(path, raw)
	}
	return raw, nil
}

func decodeImageEnvelope(path string, raw []byte) ([]byte, error) {
	var env struct {
		Success     bool   `json:"success"`
		Image       string `json:"image"`
		ResultImage string `json:"result_image"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: decode envelope: %w", path, err)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("%s: pipeline error: %s", path, env.Error)
	}

	payload := env.ResultImage
	if payload == "" {
		payload = env.Image
	}
	if payload == "" {
		return nil, fmt.Errorf("%s: envelope has no image", path)
	}

	if strings.HasPrefix(payload, "data:") {
		b, _, err := decodeDataURI(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return b, nil
	}

	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: decode base64 image: %w", path, err)
	}
	return b, nil
}
