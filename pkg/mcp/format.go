package mcp

import (
	"fmt"
	"strings"

	"github.com/typerush/textsvc/pkg/models"
)

var typeNames = map[int]string{
	int(models.TypeWords):      "words",
	int(models.TypeSentence):   "sentence",
	int(models.TypeParagraphs): "paragraphs",
}

func typeName(t int) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", t)
}

func formatCacheStats(st models.CacheStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Entries: %d\n", st.Entries)
	fmt.Fprintf(&b, "Hits:    %d\n", st.Hits)
	fmt.Fprintf(&b, "Misses:  %d\n", st.Misses)
	fmt.Fprintf(&b, "Fetches: %d\n", st.Fetches)
	if total := st.Hits + st.Misses; total > 0 {
		fmt.Fprintf(&b, "Hit rate: %.1f%%\n", float64(st.Hits)/float64(total)*100)
	}
	return b.String()
}

func formatRecords(records []models.GenerationRecord) string {
	if len(records) == 0 {
		return "No requests recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%6s  %-19s %-10s %5s %10s  %-6s %s\n",
		"ID", "Time", "Type", "Count", "Taken ms", "Status", "Error")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%6d  %-19s %-10s %5d %10.2f  %-6s %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), typeName(r.Type),
			r.Count, r.ElapsedMs, r.Status, r.Error)
	}
	return b.String()
}

func formatSummary(rows []models.GenerationSummary) string {
	if len(rows) == 0 {
		return "No requests recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %8s %8s %10s %10s\n", "Type", "Requests", "Errors", "Avg ms", "Max ms")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %8d %8d %10.2f %10.2f\n",
			typeName(r.Type), r.RequestCount, r.ErrorCount, r.AvgElapsedMs, r.MaxElapsedMs)
	}
	return b.String()
}
