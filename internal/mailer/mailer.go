package mailer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// Mailer is the transactional email collaborator. Delivery is owned by an
// external system; the pipeline only composes and hands off messages, and
// a send failure never fails webhook processing.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outbound mail to the process log. It stands in for the
// real delivery service in development and tests.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Printf("mail to=%s subject=%q bytes=%d", to, subject, len(body))
	return nil
}

// LicenseReceipt composes the purchase email sent after issuance.
func LicenseReceipt(customerName, templateName string, keys []string, total int64, currency string) (subject, body string) {
	name := "there"
	if customerName != "" {
		name = strings.Split(customerName, " ")[0]
	}

	subject = fmt.Sprintf("Your %s license", templateName)
	body = fmt.Sprintf(`Hello %s,

Thank you for your purchase of %s (%s).

Your license key(s):
%s

Keep this email; the key is required to download and activate the template.
`, name, templateName, FormatAmount(total, currency), strings.Join(keys, "\n"))

	return subject, body
}

// FormatAmount converts a minor-unit amount into a display string, e.g.
// 2999 USD -> "29.99 USD".
func FormatAmount(total int64, currency string) string {
	amount := decimal.NewFromInt(total).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("%s %s", amount.StringFixed(2), strings.ToUpper(currency))
}
