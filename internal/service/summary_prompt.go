package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"daily-streak/internal/generator"
	"daily-streak/internal/model"
)

const (
	noTasksSummary = "You have no tasks for tomorrow! Enjoy your free time or add some goals to tackle. 🎯"
	emptyReply     = "Ready to tackle tomorrow! 💪"

	coachInstruction = "You are a concise productivity coach. Follow instructions exactly. Be specific, not generic."
)

// CategoryCounts is the number of tasks per priority colour.
type CategoryCounts struct {
	Red    int
	Yellow int
	Green  int
}

func countCategories(tasks []model.Task) CategoryCounts {
	var c CategoryCounts
	for _, t := range tasks {
		switch t.Category {
		case model.CategoryRed:
			c.Red++
		case model.CategoryYellow:
			c.Yellow++
		case model.CategoryGreen:
			c.Green++
		}
	}
	return c
}

// fallbackSummary is used whenever the generator cannot produce text.
func fallbackSummary(c CategoryCounts) string {
	return fmt.Sprintf("You have %d urgent, %d important, and %d optional tasks tomorrow. Focus on urgent tasks first! 💪",
		c.Red, c.Yellow, c.Green)
}

// buildPrompt lists the tasks in the order given (RED first) with the
// per-colour counts and the shape the reply must take.
func buildPrompt(tasks []model.Task) generator.Prompt {
	counts := countCategories(tasks)

	var b strings.Builder
	b.WriteString("Write a short motivational summary of this task list.\n\n")
	b.WriteString("TASKS:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "- [%s] %s", t.Category, strings.TrimSpace(t.Title))
		if d := strings.TrimSpace(t.Description); d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nPRIORITY COUNTS:\n")
	fmt.Fprintf(&b, "- RED (urgent): %d\n", counts.Red)
	fmt.Fprintf(&b, "- YELLOW (important): %d\n", counts.Yellow)
	fmt.Fprintf(&b, "- GREEN (optional): %d\n", counts.Green)
	b.WriteString("\nRULES:\n")
	b.WriteString("Reply with 2-3 sentences.\n")
	b.WriteString("1. Acknowledge the workload using the counts above.\n")
	b.WriteString("2. Give one actionable tip that names at least one of the task titles.\n")
	b.WriteString("3. Close with a short encouragement.\n")
	b.WriteString("Stay under 50 words and do not be generic.\n")

	return generator.Prompt{System: coachInstruction, User: b.String()}
}

// cleanReply strips double quotes so the text embeds safely in JSON strings
// and other quoted contexts.
func cleanReply(raw string) string {
	out := strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(raw)
	out = strings.TrimSpace(out)
	if out == "" {
		return emptyReply
	}
	return out
}

// fingerprintEntry is the part of a task that invalidates a cached summary.
type fingerprintEntry struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Category model.Category `json:"category"`
}

// fingerprint serialises the ordered (id, title, category) tuples. Titles are
// NFC normalised so equivalent Unicode spellings compare equal.
func fingerprint(tasks []model.Task) (string, error) {
	entries := make([]fingerprintEntry, 0, len(tasks))
	for _, t := range tasks {
		entries = append(entries, fingerprintEntry{
			ID:       t.ID,
			Title:    norm.NFC.String(t.Title),
			Category: t.Category,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint: %w", err)
	}
	return string(raw), nil
}
