package health

import (
	"fmt"
)

// RenderDashboardHTML returns a minimal status page for GET /.
func RenderDashboardHTML(health CollectResult) string {
	depRows := ""
	for name, dep := range health.Dependencies {
		cls := "err"
		if dep.Status == "connected" || dep.Status == "reachable" {
			cls = "ok"
		}
		depRows += fmt.Sprintf(`<tr><td>%s</td><td class="%s">%s</td></tr>`, name, cls, dep.Status)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Savanna Homes · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body { font-family: Georgia, serif; background: #faf8f5; color: #2d2a26; max-width: 640px; margin: 48px auto; padding: 0 16px; }
    h1 { font-size: 28px; letter-spacing: -0.5px; }
    .status { display: inline-block; padding: 4px 14px; border-radius: 999px; font-size: 14px; }
    .status.ok { background: #e6f0e6; color: #2e5d34; }
    .status.issue { background: #fbeaea; color: #a33030; }
    table { width: 100%%; border-collapse: collapse; margin-top: 24px; }
    td { padding: 8px 4px; border-bottom: 1px solid #e8e3db; font-size: 15px; }
    td.ok { color: #2e5d34; } td.err { color: #a33030; }
    .meta { color: #8a8378; font-size: 13px; margin-top: 24px; }
  </style>
</head>
<body>
  <h1>Savanna Homes API</h1>
  <span class="status %s">%s</span>
  <table>%s
    <tr><td>requests</td><td>%d</td></tr>
    <tr><td>success rate</td><td>%s%%</td></tr>
    <tr><td>avg response</td><td>%v ms</td></tr>
  </table>
  <div class="meta">uptime %ds · %s · %s</div>
</body>
</html>`,
		health.Status, health.Status, depRows,
		health.Traffic.TotalRequests, health.Traffic.SuccessRate, health.Traffic.AvgResponseTime,
		health.Runtime.UptimeSeconds, health.Runtime.Platform, health.Runtime.GoVersion)
}
