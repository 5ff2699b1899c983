package notify

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"newswatch/internal/collect"
)

var boldTags = strings.NewReplacer("<b>", "", "</b>", "")

// CleanTitle strips the provider's <b> emphasis markup for logging and
// ledger storage. The item itself is never modified.
func CleanTitle(title string) string {
	return boldTags.Replace(html.UnescapeString(title))
}

// buildMessage renders one item as a Telegram HTML message: bold
// title, publication date, description, and a link anchor. The search
// keyword that produced the item is re-bolded in the title when the
// provider's own markup did not survive.
func buildMessage(item collect.Item, keyword string) string {
	title := html.UnescapeString(item.Title)
	description := html.UnescapeString(item.Description)

	title = emphasizeKeyword(title, keyword)

	parts := []string{fmt.Sprintf("<b>%s</b>", title)}
	if !item.PublishedAt.IsZero() {
		parts = append(parts, fmt.Sprintf("<i>%s</i>", formatKoreanDate(item.PublishedAt)))
	}
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, fmt.Sprintf(`<a href="%s">기사 링크</a>`, item.Link))

	return strings.Join(parts, "\n\n")
}

// emphasizeKeyword wraps the keyword in <b> tags unless the title
// already carries that emphasis.
func emphasizeKeyword(title, keyword string) string {
	if keyword == "" {
		return title
	}
	if strings.Contains(strings.ToLower(title), "<b>"+strings.ToLower(keyword)+"</b>") {
		return title
	}
	re, err := regexp.Compile("(?i)(" + regexp.QuoteMeta(keyword) + ")")
	if err != nil {
		return title
	}
	return re.ReplaceAllString(title, "<b>$1</b>")
}

// formatKoreanDate renders a timestamp the way the notification reads
// it, without zero padding: "2026년 1월 9일 7시 26분".
func formatKoreanDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일 %d시 %d분",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}
