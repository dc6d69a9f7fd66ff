package newsletter

import (
	"fmt"
	"strings"

	"newsletter-curator/internal/domain/entity"
)

// EmptyMessage is the templated newsletter used when no article qualified.
func EmptyMessage(username string, interestNames []string) string {
	return fmt.Sprintf("Hello %s,\n\nThere are no new updates for your interests (%s) this week. "+
		"We'll be back when there's something worth reading.\n\nBest regards,\nThe Newsletter Team",
		username, strings.Join(interestNames, ", "))
}

// FormatArticles renders one title/summary/url block per article.
func FormatArticles(articles []*entity.Article) string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nSummary: %s\nURL: %s", a.Title, a.Summary, a.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt asks the model for a greeting, one section per interest with
// key takeaways, a "No new updates" line for uncovered interests and a closing.
func BuildPrompt(username string, interestNames []string, articles []*entity.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a personalized newsletter for %s, who is interested in: %s.\n",
		username, strings.Join(interestNames, ", "))
	b.WriteString("Here are recent article summaries relevant to these topics:\n\n")
	b.WriteString(FormatArticles(articles))
	b.WriteString("\n\nCombine these summaries into an engaging and concise newsletter.\n")
	b.WriteString("Start with a friendly greeting.\n")
	b.WriteString("For each interest, provide a brief section with key takeaways.\n")
	b.WriteString("If there are no new articles for an interest, state 'No new updates'.\n")
	b.WriteString("Conclude with a polite closing.")
	return b.String()
}
