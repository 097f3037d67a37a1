package pipeline

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/kryli/TgAnalyzer/internal/corpus"
)

const topUsersLimit = 15

// runMessageActivity charts message counts per calendar day. Messages
// without a parseable timestamp are excluded from this aggregation only.
func (p *Pipeline) runMessageActivity(ctx context.Context, messages []corpus.Message, manifest *Manifest) StageResult {
	log := p.log.With("stage", "message_activity")

	counts := make(map[string]int)
	for _, m := range messages {
		if m.Date == nil {
			continue
		}
		counts[m.Date.Format("2006-01-02")]++
	}
	if len(counts) == 0 {
		return skipped("no messages with valid dates")
	}

	days := make([]string, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Strings(days)

	values := make([]float64, len(days))
	for i, day := range days {
		values[i] = float64(counts[day])
	}

	path := filepath.Join(manifest.RunDir, ArtifactMessageActivity)
	if err := renderBarChart("Message Activity by Date", "Message Count", days, values, path); err != nil {
		return failed(err)
	}
	manifest.SetProduced(ArtifactMessageActivity)
	log.InfoContext(ctx, "Message activity chart written", "days", len(days))
	return success()
}

// runUserActivity charts the most active senders by message count. Senders
// without a name are aggregated under "Unknown".
func (p *Pipeline) runUserActivity(ctx context.Context, messages []corpus.Message, manifest *Manifest) StageResult {
	log := p.log.With("stage", "user_activity")

	counts := make(map[string]int)
	var order []string
	for _, m := range messages {
		name := m.SenderName
		if name == "" {
			name = "Unknown"
		}
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}
	if len(order) == 0 {
		return skipped("no sender data available")
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topUsersLimit {
		order = order[:topUsersLimit]
	}

	values := make([]float64, len(order))
	for i, name := range order {
		values[i] = float64(counts[name])
	}

	path := filepath.Join(manifest.RunDir, ArtifactUserActivity)
	if err := renderBarChart("Top 15 Most Active Users", "Message Count", order, values, path); err != nil {
		return failed(err)
	}
	manifest.SetProduced(ArtifactUserActivity)
	log.InfoContext(ctx, "User activity chart written", "users", len(order))
	return success()
}
