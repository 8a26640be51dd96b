package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// detectResponse is the JSON the model is asked to return.
type detectResponse struct {
	Objects []struct {
		Label string    `json:"label"`
		Box   []float64 `json:"box"`
	} `json:"objects"`
}

// parseResponse extracts detections from model output. Boxes are given in
// the pixel space of sent and rescaled to frame. Objects without a label
// or with a malformed box are skipped.
func parseResponse(content string, sent, frame domain.Frame) ([]domain.RawDetection, error) {
	body := extractJSON(content)
	if body == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var resp detectResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}

	sx := float64(frame.Width) / float64(sent.Width)
	sy := float64(frame.Height) / float64(sent.Height)

	dets := make([]domain.RawDetection, 0, len(resp.Objects))
	for _, o := range resp.Objects {
		label := strings.ToLower(strings.TrimSpace(o.Label))
		if label == "" || len(o.Box) != 4 {
			continue
		}
		dets = append(dets, domain.RawDetection{
			Label: label,
			BBox: domain.BBox{
				X1: o.Box[0] * sx,
				Y1: o.Box[1] * sy,
				X2: o.Box[2] * sx,
				Y2: o.Box[3] * sy,
			},
		})
	}
	return dets, nil
}

// extractJSON returns the outermost {...} span, tolerating code fences
// and prose around it.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
