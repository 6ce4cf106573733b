package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/docinsight/internal/models"
)

// formatLoaded summarises the loaded document followed by the greeting
func formatLoaded(snap models.SessionSnapshot) string {
	var sb strings.Builder
	if doc := snap.Document; doc != nil {
		fmt.Fprintf(&sb, "**%s** (%s", doc.Name, doc.SizeLabel)
		if doc.PageCount > 0 {
			fmt.Fprintf(&sb, ", %d pages", doc.PageCount)
		}
		sb.WriteString(")\n\n")
	}
	sb.WriteString(lastAnswer(snap))
	return sb.String()
}

// lastAnswer returns the newest assistant message text
func lastAnswer(snap models.SessionSnapshot) string {
	for i := len(snap.Messages) - 1; i >= 0; i-- {
		if snap.Messages[i].Role == models.RoleAssistant {
			return snap.Messages[i].Text
		}
	}
	return ""
}
