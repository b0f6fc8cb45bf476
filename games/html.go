package games

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gamegen/core"
)

var (
	htmlFence = regexp.MustCompile("(?i)```html")
	anyFence  = regexp.MustCompile("```")
)

// CleanHTML strips markdown code fences the model sometimes wraps its
// output in.
func CleanHTML(text string) string {
	text = htmlFence.ReplaceAllString(text, "")
	text = anyFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// InjectGameID replaces every id placeholder.
func InjectGameID(html string, id core.GameID) string {
	return strings.ReplaceAll(html, GameIDPlaceholder, string(id))
}

// Metadata is embedded in generated pages so the editor can re-import them.
type Metadata struct {
	Prompt      string          `json:"prompt"`
	Difficulty  core.Difficulty `json:"difficulty"`
	IsTimed     bool            `json:"is_timed"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// InjectMetadata adds a JSON script tag before the first </body>, or at the
// end when the page has none.
func InjectMetadata(html string, meta Metadata) (string, error) {
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	// encoding/json escapes '<', so the prompt cannot close the script early
	script := "\n<!-- GENERATED METADATA -->\n<script id=\"game-metadata\" type=\"application/json\">\n" + string(b) + "\n</script>"
	if strings.Contains(html, "</body>") {
		return strings.Replace(html, "</body>", script+"\n</body>", 1), nil
	}
	return html + script, nil
}

// ValidatePublished checks the minimum a published page must carry.
func ValidatePublished(html string) error {
	if !strings.Contains(html, "<!DOCTYPE html>") {
		return fmt.Errorf("%w: missing <!DOCTYPE html>", core.ErrInvalidHTML)
	}
	return nil
}
