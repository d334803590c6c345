package emails

import (
	"fmt"
	"strings"
	"time"
)

const siteName = "Property Portal"

const (
	themePrimary   = "#1D4ED8"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared HTML shell.
func EmailLayout(contentHTML string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; }
    body, td, p, a { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 24px; margin-top: 0; margin-bottom: 20px; }
    .portal-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 32px; text-decoration: none !important; border-radius: 6px; font-weight: 600; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr>
            <td class="content-body" style="padding: 40px 48px 30px 48px;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding: 24px 48px 32px 48px;">
              <p class="footer-text" style="margin: 0;">© %d %s</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		siteName, themeBgBody, themeTextMain, themePrimary, themeTextMuted,
		themeBgBody, themeWhite, contentHTML, year, siteName)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
