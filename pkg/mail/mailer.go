// Package mail 提供联系表单与等待名单的邮件通知功能。
package mail

import (
	"fmt"

	"github.com/vaahiiid/askimateplatform/internal/config"
	"gopkg.in/gomail.v2"
)

// Mailer 封装了 SMTP 发信。
type Mailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewMailer 创建一个 Mailer 实例。
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendWaitlistWelcome 向加入等待名单的用户发送确认邮件。
func (m *Mailer) SendWaitlistWelcome(fullName, email string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nThank you for joining the AskiMate waiting list!\n\nBest regards,\nThe AskiMate Team",
		fullName,
	)
	return m.send(email, "Welcome to AskiMate Waiting List!", body)
}

// SendContactNotification 把联系表单内容发给运营邮箱，并给提交者回执。
func (m *Mailer) SendContactNotification(name, email, message string) error {
	notification := fmt.Sprintf("Name: %s\nEmail: %s\nMessage:\n%s", name, email, message)
	if err := m.send(m.cfg.ContactRecipient, "New Contact Form Submission", notification); err != nil {
		return err
	}

	ack := fmt.Sprintf(
		"Hi %s,\n\nThanks for reaching out to us!\n\nYour message:\n%s\n\nBest,\nAskiMate Team",
		name, message,
	)
	return m.send(email, "We received your message at AskiMate!", ack)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("发送邮件失败 (to=%s): %w", to, err)
	}
	return nil
}
