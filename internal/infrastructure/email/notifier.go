package email

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/rentnest/backend/internal/domain/alert"
	"go.uber.org/zap"
)

var (
	//go:embed templates/alert-match.html
	alertMatchHTML string
	//go:embed templates/alert-match.txt
	alertMatchText string

	alertMatchHTMLTmpl = htmltemplate.Must(htmltemplate.New("alert-match.html").Parse(alertMatchHTML))
	alertMatchTextTmpl = texttemplate.Must(texttemplate.New("alert-match.txt").Parse(alertMatchText))
)

type alertMatchValues struct {
	RecipientName string
	AlertName     string
	Title         string
	Price         string
	Location      string
	Bedrooms      int
	Bathrooms     float64
	PropertyURL   string
}

// AlertNotifier mails alert owners when a new listing matches their saved search
type AlertNotifier struct {
	mailer  *Mailer
	baseURL string
}

// NewAlertNotifier creates an AlertNotifier; baseURL is the public web app address used for listing links
func NewAlertNotifier(mailer *Mailer, baseURL string) *AlertNotifier {
	return &AlertNotifier{mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// NotifyMatch renders and queues the notice
func (n *AlertNotifier) NotifyMatch(_ context.Context, notice alert.MatchNotice) error {
	if notice.RecipientEmail == "" {
		return fmt.Errorf("email: recipient is required")
	}
	subject, html, text, err := renderAlertMatch(notice, n.baseURL)
	if err != nil {
		return err
	}
	return n.mailer.Enqueue(notice.RecipientEmail, subject, html, text)
}

func renderAlertMatch(notice alert.MatchNotice, baseURL string) (subject, html, text string, err error) {
	p := notice.Property
	location := p.City
	if p.State != "" {
		location += ", " + p.State
	}
	values := alertMatchValues{
		RecipientName: notice.RecipientName,
		AlertName:     notice.AlertName,
		Title:         p.Title,
		Price:         p.Price.StringFixed(2) + " " + p.Currency,
		Location:      location,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		PropertyURL:   baseURL + "/properties/" + p.ID.String(),
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := alertMatchHTMLTmpl.Execute(&htmlBuf, values); err != nil {
		return "", "", "", fmt.Errorf("email: render alert html: %w", err)
	}
	if err := alertMatchTextTmpl.Execute(&textBuf, values); err != nil {
		return "", "", "", fmt.Errorf("email: render alert text: %w", err)
	}

	subject = fmt.Sprintf("New listing for \"%s\": %s", notice.AlertName, p.Title)
	return subject, htmlBuf.String(), textBuf.String(), nil
}

// LogNotifier records notices in the log when SMTP is disabled
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyMatch logs the notice
func (n *LogNotifier) NotifyMatch(_ context.Context, notice alert.MatchNotice) error {
	n.logger.Info("Alert match (email disabled)",
		zap.String("recipient", notice.RecipientEmail),
		zap.String("alert", notice.AlertName),
		zap.String("property_id", notice.Property.ID.String()))
	return nil
}

var (
	_ alert.Notifier = (*AlertNotifier)(nil)
	_ alert.Notifier = (*LogNotifier)(nil)
)
