package email

import (
	"fmt"
	"strings"

	"github.com/codr1/Courtside/internal/models"
)

type Message struct {
	Subject string
	Body    string
}

// FormatSlot renders a date and slot for humans, e.g. "Saturday, Jun 15, 2024"
// and "09:00 - 10:00".
func FormatSlot(date models.Date, slot models.Slot) (string, string) {
	return date.Format("Monday, Jan 2, 2006"), fmt.Sprintf("%s - %s", slot.Start, slot.End)
}

func BuildWaitlistEmail(notice models.WaitlistNotice) Message {
	name := strings.TrimSpace(notice.Name)
	if name == "" {
		name = "there"
	}
	courtName := strings.TrimSpace(notice.CourtName)
	if courtName == "" {
		courtName = "your court"
	}
	date, timeRange := FormatSlot(notice.Date, notice.Slot)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("Good news! A slot you were waiting for has opened up.\n\n")
	fmt.Fprintf(&b, "Court: %s\n", courtName)
	fmt.Fprintf(&b, "Date: %s\n", date)
	fmt.Fprintf(&b, "Time: %s\n\n", timeRange)
	b.WriteString("Book it soon, the slot goes to whoever reserves it first.\n")

	return Message{
		Subject: "Booking Slot Available - " + courtName,
		Body:    b.String(),
	}
}
