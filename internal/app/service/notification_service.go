package service

import (
	"fmt"
	"net/smtp"

	"github.com/intshop/intshop-backend/config"
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/pkg/logger"
)

// Mailer delivers a single message. The smtp implementation is swapped for a
// recorder in tests.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	cfg *config.SMTPConfig
}

func NewSMTPMailer(cfg *config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}

// NotificationService sends order lifecycle mail. Delivery is fire-and-forget:
// a failed send is logged and never affects order state.
type NotificationService interface {
	NotifyOrderCreated(order *model.Order)
	NotifyOrderPaid(order *model.Order)
}

type notificationService struct {
	mailer Mailer
}

func NewNotificationService(mailer Mailer) NotificationService {
	return &notificationService{mailer: mailer}
}

func (s *notificationService) NotifyOrderCreated(order *model.Order) {
	s.send(order, fmt.Sprintf("Order #%d received", order.ID),
		fmt.Sprintf("Hi %s,\n\nwe received your order #%d and will start processing it shortly.\n",
			order.FirstName, order.ID))
}

func (s *notificationService) NotifyOrderPaid(order *model.Order) {
	s.send(order, fmt.Sprintf("Order #%d payment confirmed", order.ID),
		fmt.Sprintf("Hi %s,\n\npayment for your order #%d has been confirmed. Thank you for shopping with us.\n",
			order.FirstName, order.ID))
}

func (s *notificationService) send(order *model.Order, subject, body string) {
	if s.mailer == nil || order.Email == "" {
		return
	}

	go func() {
		if err := s.mailer.Send(order.Email, subject, body); err != nil {
			logger.Error("Failed to send order notification", err, map[string]interface{}{
				"order_id": order.ID,
				"subject":  subject,
			})
			return
		}
		logger.Debug("Order notification sent", map[string]interface{}{
			"order_id": order.ID,
			"subject":  subject,
		})
	}()
}
