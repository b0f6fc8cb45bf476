package games

import (
	"fmt"
	"strings"
	"text/template"

	"gamegen/core"
)

// GameIDPlaceholder is replaced with the real id once a game is generated.
const GameIDPlaceholder = "[[GAME_ID]]"

var promptTemplate = template.Must(template.New("game").Parse(`You are an expert educational game developer.
Generate ONE complete, valid, self-contained HTML file for the request below.

Shared leaderboard contract:
- Declare const GAME_ID = "{{.Placeholder}}"; at the top of the script. The server replaces it.
- On the final screen (victory or game over) show an input#playerName and a "Submit Score" button.
- Submit with fetch('/submit-score', {method: 'POST'}) and JSON body { game_id, player_name, score }.
- Load the top scores with fetch('/leaderboard/' + GAME_ID); it returns [{ "name": "...", "score": 100 }, ...].
- Render an empty list as "No scores yet" and a failed request as a short connection error.

Scoring: exactly 100 points per correct answer, no time bonuses.
Timer: {{if .Timed}}show a shrinking progress bar sized for {{.Difficulty}} difficulty{{else}}no timer{{end}}.
Layout: mobile friendly, include a viewport meta tag, high-contrast text.
Output only raw HTML ending in </html>. The script must be the last tag in <body>.

USER GAME REQUEST:
{{.Request}}
`))

// Options are the request parameters surfaced to the model.
type Options struct {
	Difficulty core.Difficulty
	Timed      bool
}

// WithOptions appends the [OPTIONS] block the template refers to.
func WithOptions(prompt string, opts Options) string {
	timed := "NO"
	if opts.Timed {
		timed = "YES"
	}
	return fmt.Sprintf("%s\n\n[OPTIONS]\nDifficulty: %s\nTimed Mode: %s", prompt, opts.Difficulty, timed)
}

// BuildPrompt renders the generation prompt for a user request.
func BuildPrompt(request string, opts Options) (string, error) {
	var b strings.Builder
	err := promptTemplate.Execute(&b, struct {
		Placeholder string
		Difficulty  core.Difficulty
		Timed       bool
		Request     string
	}{GameIDPlaceholder, opts.Difficulty, opts.Timed, WithOptions(request, opts)})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}
