package emails

import (
	"fmt"
	"html"
	"strings"

	"savanna-backend/internal/domain"
)

// NewLeadHTML renders the operator notification for one lead. Plain table
// layout; every visitor-supplied value is escaped.
func NewLeadHTML(lead *domain.Lead) string {
	var rows strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding:6px 12px;color:#6B7280;">%s</td><td style="padding:6px 12px;color:#1F2937;">%s</td></tr>`,
			label, html.EscapeString(value)))
	}
	row("Name", lead.Name)
	row("Email", lead.Email)
	row("Phone", deref(lead.Phone))
	row("Preferred date", deref(lead.PreferredDate))
	row("Preferred time", deref(lead.PreferredTime))
	row("Property", deref(lead.ListingTitle))
	row("Message", deref(lead.Message))

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"></head>
<body style="margin:0;background:#F3F4F6;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:24px auto;background:#FFFFFF;border-radius:8px;overflow:hidden;">
    <div style="background:#1F2937;color:#FFFFFF;padding:16px 24px;font-size:18px;">New lead from the website</div>
    <table style="width:100%%;border-collapse:collapse;padding:8px;">%s</table>
    <div style="padding:12px 24px;color:#6B7280;font-size:12px;">Open the admin panel to follow up.</div>
  </div>
</body>
</html>`, rows.String())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
