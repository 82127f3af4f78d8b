// Package mailer delivers the finished report by SMTP: an HTML message with
// the inline logo, the static sign guide and the mandala PDF attached.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each SMTP exchange when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config holds the SMTP account. Mail is disabled while User or Password is empty.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	LogoPath string
	Timeout  time.Duration
}

// Enabled reports whether credentials are configured.
func (c Config) Enabled() bool {
	return c.User != "" && c.Password != ""
}

// Report is one outgoing report email.
type Report struct {
	To         string
	Name       string
	ZodiacSign string // Spanish sun sign, shown upper-cased
	GuidePDF   []byte // nil skips the guide attachment
	MandalaPDF []byte
}

type deliverFunc func(ctx context.Context, msg *mail.Msg) error

// Mailer sends reports. It is safe for concurrent use.
type Mailer struct {
	cfg     Config
	logger  *zap.Logger
	deliver deliverFunc
	now     func() time.Time
}

// New creates a mailer. STARTTLS is used when the server offers it.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	m := &Mailer{cfg: cfg, logger: logger, now: time.Now}
	m.deliver = m.dialAndSend
	return m
}

// Enabled reports whether SendReport will actually send.
func (m *Mailer) Enabled() bool { return m.cfg.Enabled() }

// SendReport sends the report. It returns false without error when mail is
// disabled. The SMTP exchange is abandoned once ctx is done.
func (m *Mailer) SendReport(ctx context.Context, r Report) (bool, error) {
	if !m.cfg.Enabled() {
		m.logger.Info("smtp not configured, skipping email", zap.String("to", r.To))
		return false, nil
	}
	if r.To == "" {
		return false, fmt.Errorf("report for %q has no recipient", r.Name)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var logo []byte
	if m.cfg.LogoPath != "" {
		data, err := os.ReadFile(m.cfg.LogoPath)
		if err != nil {
			m.logger.Warn("logo unavailable, sending without it", zap.String("path", m.cfg.LogoPath), zap.Error(err))
		} else {
			logo = data
		}
	}

	msg, err := m.compose(r, logo)
	if err != nil {
		return false, err
	}

	if err := m.deliver(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("failed to send report to %s: %w", r.To, ctxErr)
		}
		return false, fmt.Errorf("failed to send report to %s: %w", r.To, err)
	}

	m.logger.Info("report emailed",
		zap.String("to", r.To),
		zap.String("sign", r.ZodiacSign))
	return true, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithDialContextFunc(contextDialer(ctx, m.cfg.Timeout)),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// contextDialer returns a dial func whose connections stop all I/O once
// parent is done. The SMTP client only bounds the dial itself, so without
// this a server that accepts and never greets would block forever.
func contextDialer(parent context.Context, timeout time.Duration) mail.DialContextFunc {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		c := &ctxConn{Conn: conn, ctx: parent}
		if err := c.SetDeadline(time.Now().Add(timeout)); err != nil {
			conn.Close()
			return nil, err
		}
		c.stop = context.AfterFunc(parent, func() {
			_ = conn.SetDeadline(time.Now())
		})
		return c, nil
	}
}

// ctxConn refuses to extend its deadline past the end of ctx.
type ctxConn struct {
	net.Conn
	ctx  context.Context
	stop func() bool
	once sync.Once
}

func (c *ctxConn) SetDeadline(t time.Time) error {
	if c.ctx.Err() != nil {
		t = time.Now()
	} else if dl, ok := c.ctx.Deadline(); ok && dl.Before(t) {
		t = dl
	}
	return c.Conn.SetDeadline(t)
}

func (c *ctxConn) Close() error {
	c.once.Do(func() {
		if c.stop != nil {
			c.stop()
		}
	})
	return c.Conn.Close()
}

func (m *Mailer) fromHeader() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.User
}

// Subject returns the subject line for a recipient name.
func Subject(name string) string {
	return "🌟 Tu Carta Astral Completa Cosmikids - " + name
}

// Slug lower-cases name and replaces every whitespace rune with "-".
func Slug(name string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, name))
}

// GuideAttachmentName is the file name of the attached sign guide.
func GuideAttachmentName(sign, name string) string {
	return fmt.Sprintf("guia-%s-%s.pdf", strings.ToLower(sign), Slug(name))
}

// MandalaAttachmentName is the file name of the attached mandala.
func MandalaAttachmentName(name string) string {
	return fmt.Sprintf("mandala-astral-%s.pdf", Slug(name))
}

// compose builds the message: html body and inline logo in
// multipart/related, PDFs as attachments.
func (m *Mailer) compose(r Report, logo []byte) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.fromHeader()); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.fromHeader(), err)
	}
	if err := msg.To(r.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", r.To, err)
	}
	msg.Subject(Subject(r.Name))
	msg.SetDateWithValue(m.now())
	msg.SetMessageID()

	if err := msg.SetBodyHTMLTemplate(bodyTemplate, bodyData{r.Name, r.ZodiacSign}); err != nil {
		return nil, fmt.Errorf("failed to render email body: %w", err)
	}

	if logo != nil {
		if err := msg.EmbedReader("logo.webp", bytes.NewReader(logo),
			mail.WithFileContentType(mail.ContentType("image/webp")),
			mail.WithFileContentID("<logo>"),
		); err != nil {
			return nil, fmt.Errorf("failed to embed logo: %w", err)
		}
	}
	if r.GuidePDF != nil {
		if err := attachPDF(msg, GuideAttachmentName(r.ZodiacSign, r.Name), r.GuidePDF); err != nil {
			return nil, err
		}
	}
	if r.MandalaPDF != nil {
		if err := attachPDF(msg, MandalaAttachmentName(r.Name), r.MandalaPDF); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func attachPDF(msg *mail.Msg, name string, data []byte) error {
	err := msg.AttachReader(name, bytes.NewReader(data), mail.WithFileContentType(mail.ContentType("application/pdf")))
	if err != nil {
		return fmt.Errorf("failed to attach %s: %w", name, err)
	}
	return nil
}

type bodyData struct{ Name, Sign string }

var bodyTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Tu Mandala Astrológico - Cosmikids</title>
</head>
<body style="margin: 0; padding: 20px; font-family: Arial, sans-serif; background: #f8f8f8; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff;">
    <div style="background: #6b46c1; padding: 40px 30px; text-align: center;">
      <img src="cid:logo" alt="Cosmikids" style="max-width: 160px; height: auto; margin-bottom: 20px;">
      <h1 style="color: #ffffff; font-size: 28px; margin: 0;">Tu Mandala Astrológico</h1>
    </div>
    <div style="padding: 40px 30px;">
      <h2 style="color: #6b46c1; font-size: 24px; margin: 0 0 20px 0; text-align: center;">¡Hola, {{.Name}}!</h2>
      <div style="background: #f8f6fc; border: 1px solid #e8dff0; padding: 20px; margin: 25px 0; text-align: center;">
        <div style="background: #6b46c1; color: white; padding: 6px 12px; display: inline-block; font-size: 12px; margin-bottom: 10px;">TU SIGNO SOLAR</div>
        <h3 style="color: #6b46c1; font-size: 32px; margin: 0; text-transform: uppercase;">{{.Sign}}</h3>
      </div>
      <p style="color: #555; font-size: 16px; line-height: 1.6; margin-bottom: 20px;">
        Hemos creado tu <strong>mandala astrológico personalizado</strong> usando las posiciones exactas de los planetas en el momento de tu nacimiento.
      </p>
      <div style="background: #f9f9f9; padding: 20px; margin: 25px 0;">
        <h4 style="color: #6b46c1; font-size: 18px; margin: 0 0 15px 0;">Elementos Incluidos:</h4>
        <ul style="color: #555; font-size: 14px; line-height: 1.8; margin: 0; padding-left: 20px;">
          <li>Posicionamiento astronómico exacto de planetas</li>
          <li>Los 12 signos zodiacales con símbolos auténticos</li>
          <li>Información personalizada de Sol, Luna y Ascendente</li>
          <li>Diseño artístico profesional por capas</li>
        </ul>
      </div>
      <div style="text-align: center; margin: 30px 0;">
        <div style="background: #6b46c1; color: white; padding: 10px 20px; display: inline-block; font-size: 14px; margin-bottom: 10px;">📎 ARCHIVO ADJUNTO</div>
        <p style="color: #666; font-size: 14px; margin: 0;">Tu mandala en formato PDF de alta calidad.</p>
      </div>
    </div>
    <div style="background: #f8f6fc; padding: 30px; text-align: center; border-top: 1px solid #e8dff0;">
      <p style="color: #6b46c1; font-size: 16px; margin: 0 0 10px 0;">Con amor cósmico</p>
      <p style="color: #666; font-size: 14px; margin: 0;">El equipo de <strong>Cosmikids</strong></p>
      <div style="margin-top: 20px; padding-top: 15px; border-top: 1px solid #e8dff0;">
        <p style="color: #888; font-size: 12px; margin: 0;">Cosmikids · Astrología personalizada</p>
      </div>
    </div>
  </div>
</body>
</html>
`))

// Body renders the HTML body of the report email.
func Body(name, sign string) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, bodyData{name, sign}); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}
