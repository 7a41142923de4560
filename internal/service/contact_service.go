package service

import (
	"errors"

	"github.com/vaahiiid/askimateplatform/internal/repository"
	"github.com/vaahiiid/askimateplatform/pkg/log"
	"github.com/vaahiiid/askimateplatform/pkg/mail"
	"gorm.io/gorm"
)

// ErrAlreadyJoined 表示该邮箱此前已加入等待名单。
var ErrAlreadyJoined = errors.New("already joined the waiting list")

// ContactService 定义了联系表单与等待名单的业务操作。
type ContactService interface {
	JoinWaitlist(fullName, email string) error
	SubmitContactForm(name, email, message string) error
}

type contactService struct {
	userRepo repository.UserRepository
	mailer   *mail.Mailer
}

// NewContactService 创建一个新的 ContactService 实例。
func NewContactService(userRepo repository.UserRepository, mailer *mail.Mailer) ContactService {
	return &contactService{userRepo: userRepo, mailer: mailer}
}

// JoinWaitlist 处理等待名单加入请求：已注册过的邮箱直接拒绝，
// 确认邮件发送失败不视为加入失败，只记录告警。
func (s *contactService) JoinWaitlist(fullName, email string) error {
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return ErrAlreadyJoined
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.mailer.SendWaitlistWelcome(fullName, email); err != nil {
		log.Warnw("等待名单确认邮件发送失败", "email", email, "error", err)
	}
	return nil
}

// SubmitContactForm 处理联系表单：通知运营邮箱并给提交者回执。
func (s *contactService) SubmitContactForm(name, email, message string) error {
	return s.mailer.SendContactNotification(name, email, message)
}
