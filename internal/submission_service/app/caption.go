package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// BuildCaption renders the group caption of a delivery video.
func BuildCaption(destination string, c domain.ContactSnapshot, at time.Time) string {
	var b strings.Builder
	b.WriteString("📦 Delivery confirmation\n")
	fmt.Fprintf(&b, "🏫 Destination: %s\n", destination)
	fmt.Fprintf(&b, "👤 Driver: %s %s", c.FirstName, c.LastName)
	if c.Handle != "" {
		fmt.Fprintf(&b, " (%s)", c.Handle)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "📞 Phone: %s\n", c.Phone)
	fmt.Fprintf(&b, "🚗 Car: %s\n", c.CarPlate)
	fmt.Fprintf(&b, "🕒 Time: %s", at.Format("2006-01-02 15:04"))
	return b.String()
}
