package controllers

import (
	"fmt"
	"html/template"
	"log"
	"strings"
)

// sendMailSafe delivers best-effort mail: a failure is logged, never
// propagated to the caller.
func sendMailSafe(to []string, subject, html string) {
	if err := sendMailFunc(to, subject, html); err != nil {
		log.Printf("mail send failed (subject=%q to=%v): %v", subject, to, err)
	}
}

// sendOTPEmail delivers a one-time code. Callers on registration/reset paths
// treat a returned error as fatal for the flow.
func sendOTPEmail(recipient, otp, purpose string) error {
	subject := fmt.Sprintf("OTP for %s - TourApp", titleCase(purpose))
	return sendMailFunc([]string{recipient}, subject, buildOTPEmailHTML(otp, purpose))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func buildAccountStatusEmailHTML(fullName string, approved bool) string {
	escapedName := template.HTMLEscapeString(fullName)
	if approved {
		return fmt.Sprintf(`<html>
<body>
  <h2>Account Approved</h2>
  <p>Hi %s,</p>
  <p>Your TourApp account has been approved. You can now log in.</p>
  <br>
  <p>Best regards,<br>TourApp Team</p>
</body>
</html>`, escapedName)
	}
	return fmt.Sprintf(`<html>
<body>
  <h2>Account Update</h2>
  <p>Hi %s,</p>
  <p>Your TourApp registration was not approved. Please contact your administrator for details.</p>
  <br>
  <p>Best regards,<br>TourApp Team</p>
</body>
</html>`, escapedName)
}

func buildOTPEmailHTML(otp, purpose string) string {
	escapedOTP := template.HTMLEscapeString(otp)
	escapedPurpose := template.HTMLEscapeString(purpose)

	return fmt.Sprintf(`<html>
<body>
  <h2>TourApp %s OTP</h2>
  <p>Your OTP for %s is:</p>
  <h1 style="color: #4CAF50; font-size: 32px; letter-spacing: 5px;">%s</h1>
  <p>This OTP will expire in 5 minutes.</p>
  <p>If you didn't request this, please ignore this email.</p>
  <br>
  <p>Best regards,<br>TourApp Team</p>
</body>
</html>`, escapedPurpose, escapedPurpose, escapedOTP)
}
