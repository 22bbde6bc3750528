package notification

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"time"

	"eventrix-booking/config"
	"eventrix-booking/internal/model"
	"eventrix-booking/pkg/logger"

	qrcode "github.com/skip2/go-qrcode"
	"gopkg.in/gomail.v2"
)

const confirmationTemplate = `
<h2>Booking Confirmed</h2>
<p>Hi {{.UserName}},</p>
<p>Your booking <strong>{{.Reference}}</strong> for <strong>{{.EventTitle}}</strong> is confirmed.</p>
<ul>
  <li>Date: {{.EventDate}}</li>
  <li>Venue: {{.EventVenue}}</li>
  <li>Tickets: {{.Tickets}}</li>
  <li>Total: {{.TotalAmount}}</li>
</ul>
<p>Show the QR code below at the entrance:</p>
<img src="{{.QRImage}}" alt="QR Code" style="max-width:220px;" />
<p>Thank you for choosing Eventrix.</p>
`

const waitlistTemplate = `
<h2>You're on the waitlist</h2>
<p>Hi {{.UserName}},</p>
<p>The event <strong>{{.EventTitle}}</strong> is currently full. We've added you to the waitlist.</p>
<p>We'll notify you automatically if seats open up. Your waitlist reference is <strong>{{.Reference}}</strong>.</p>
<p>Date: {{.EventDate}} | Venue: {{.EventVenue}}</p>
<p>Requested tickets: {{.Tickets}}{{if .QueuePosition}} | Queue position: {{.QueuePosition}}{{end}}</p>
`

type mailData struct {
	UserName      string
	Reference     string
	EventTitle    string
	EventDate     string
	EventVenue    string
	Tickets       int
	TotalAmount   float64
	QueuePosition *int
	QRImage       template.URL
}

// Mailer 透過 SMTP 寄出確認/候補信。未設定帳密時略過寄送，
// 只留下警告（開發環境常態）。
type Mailer struct {
	cfg       config.SMTPConfig
	confirmed *template.Template
	waitlist  *template.Template
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:       cfg,
		confirmed: template.Must(template.New("confirmation").Parse(confirmationTemplate)),
		waitlist:  template.Must(template.New("waitlist").Parse(waitlistTemplate)),
	}
}

// buildQRCode 入場 QR：編碼訂票編號與活動快照，回傳 data URI
func buildQRCode(booking *model.Booking) (template.URL, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"booking_reference": booking.BookingReference,
		"event_title":       booking.EventTitle,
		"event_date":        booking.EventDate,
		"user_email":        booking.UserEmail,
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 220)
	if err != nil {
		return "", err
	}

	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

func (m *Mailer) SendConfirmationEmail(booking *model.Booking, event *model.Event) error {
	qrImage, err := buildQRCode(booking)
	if err != nil {
		return err
	}

	data := mailData{
		UserName:    booking.UserName,
		Reference:   booking.BookingReference,
		EventTitle:  booking.EventTitle,
		EventDate:   booking.EventDate.Format(time.RFC1123),
		EventVenue:  booking.EventVenue,
		Tickets:     booking.NumberOfTickets,
		TotalAmount: booking.TotalAmount,
		QRImage:     qrImage,
	}

	return m.send(booking.UserEmail, "Your tickets for "+booking.EventTitle, m.confirmed, data)
}

func (m *Mailer) SendWaitlistEmail(booking *model.Booking, event *model.Event) error {
	data := mailData{
		UserName:      booking.UserName,
		Reference:     booking.BookingReference,
		EventTitle:    booking.EventTitle,
		EventDate:     booking.EventDate.Format(time.RFC1123),
		EventVenue:    booking.EventVenue,
		Tickets:       booking.NumberOfTickets,
		QueuePosition: booking.QueuePosition,
	}

	return m.send(booking.UserEmail, "Waitlist confirmation for "+booking.EventTitle, m.waitlist, data)
}

func (m *Mailer) send(to, subject string, tmpl *template.Template, data mailData) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		logger.WithComponent("notification").Warn("SMTP credentials are not configured, email not sent")
		return nil
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
