package chat

import (
	"fmt"
	"strings"
)

// Greeting is the first message shown when a chat opens.
const Greeting = "Hi! I'm your club assistant. Ask me about projects, events, or type 'help' for options."

const (
	helpReply = "I can help you with:\n" +
		"• 'projects' - View club projects\n" +
		"• 'events' - Upcoming events\n" +
		"• 'members' - Member info\n" +
		"• 'resources' - Club resources"
	projectsReply = "📋 Active Projects:\n• Portfolio Website\n• SDSU Hackathon 2024\n• Campus Events App\n• Member Directory"
	eventsReply   = "📅 Upcoming Events:\n• General Meeting - Nov 20\n• Workshop: React Basics - Nov 25\n• Holiday Social - Dec 10"
	membersReply  = "👥 We have 45 active members! Type 'roster' to see the full list."
	resourceReply = "📚 Resources:\n• Club GitHub: github.com/ourclub\n• Discord Server\n• Google Drive\n• Meeting Notes"
	helloReply    = "Hello! How can I help you today?"
)

// CannedReply answers a message with the local keyword-matched replies used
// when no remote assistant is configured.
func CannedReply(message string) string {
	lower := strings.ToLower(strings.TrimSpace(message))
	switch {
	case lower == "help" || lower == "?":
		return helpReply
	case strings.Contains(lower, "project"):
		return projectsReply
	case strings.Contains(lower, "event"):
		return eventsReply
	case strings.Contains(lower, "member"):
		return membersReply
	case strings.Contains(lower, "resource"):
		return resourceReply
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return helloReply
	}
	return fmt.Sprintf("You said: %q\n\nTry asking about projects, events, members, or resources. Type 'help' for more options.", message)
}
