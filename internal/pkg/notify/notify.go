// Package notify 在提交、回复、解决时通知管理员或用户。
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/DroppedLink/feedback/internal/model"
)

type Event string

const (
	EventCreated  Event = "created"
	EventReplied  Event = "replied"
	EventResolved Event = "resolved"
)

// Notice 一次通知所需的全部信息
type Notice struct {
	Event         Event
	Submission    *model.Submission
	User          *model.User
	AttachmentURL string
}

// Dispatcher 通知发送方，调用方不依赖发送结果
type Dispatcher interface {
	Notify(ctx context.Context, n Notice) error
}

// Nop 不发送任何通知
type Nop struct{}

func (Nop) Notify(context.Context, Notice) error { return nil }

// Mail 组装好的邮件
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Compose 生成通知邮件。新提交发给管理员，回复和解决发给提交者
func Compose(n Notice, adminEmail, adminURL string) (Mail, error) {
	s := n.Submission
	if s == nil {
		return Mail{}, fmt.Errorf("notice without submission")
	}
	label := s.TypeLabel()
	userName, userEmail := "Unknown", ""
	if n.User != nil {
		userName, userEmail = n.User.DisplayName(), n.User.Email
	}

	var b strings.Builder
	switch n.Event {
	case EventCreated:
		if adminEmail == "" {
			return Mail{}, fmt.Errorf("admin email not configured")
		}
		fmt.Fprintf(&b, "A new %s has been submitted.\n\n", label)
		fmt.Fprintf(&b, "Submitted by: %s (%s)\n", userName, userEmail)
		fmt.Fprintf(&b, "Subject: %s\n\n", s.Subject)
		fmt.Fprintf(&b, "Message:\n%s\n\n", s.Message)
		if s.ContextID != "" {
			fmt.Fprintf(&b, "Context ID: %s\n\n", s.ContextID)
		}
		if n.AttachmentURL != "" {
			fmt.Fprintf(&b, "Attached Screenshot: %s\n\n", n.AttachmentURL)
		}
		if adminURL != "" {
			fmt.Fprintf(&b, "View and respond: %s\n", adminURL)
		}
		return Mail{
			To:      adminEmail,
			Subject: fmt.Sprintf("[User Feedback] New %s: %s", label, s.Subject),
			Body:    b.String(),
		}, nil

	case EventReplied:
		if userEmail == "" {
			return Mail{}, fmt.Errorf("user has no email")
		}
		reply := ""
		if s.AdminReply != nil {
			reply = *s.AdminReply
		}
		fmt.Fprintf(&b, "Hello %s,\n\n", userName)
		fmt.Fprintf(&b, "Thank you for your %s. We have reviewed your submission and have a response:\n\n", label)
		fmt.Fprintf(&b, "---\n%s\n---\n\n", reply)
		b.WriteString("Your original message:\n")
		fmt.Fprintf(&b, "Subject: %s\n", s.Subject)
		fmt.Fprintf(&b, "Message: %s\n", s.Message)
		if n.AttachmentURL != "" {
			fmt.Fprintf(&b, "Your Screenshot: %s\n", n.AttachmentURL)
		}
		b.WriteString("\nIf you have any additional questions, please feel free to submit another feedback.\n")
		return Mail{
			To:      userEmail,
			Subject: fmt.Sprintf("Re: %s - %s", label, s.Subject),
			Body:    b.String(),
		}, nil

	case EventResolved:
		if userEmail == "" {
			return Mail{}, fmt.Errorf("user has no email")
		}
		fmt.Fprintf(&b, "Hello %s,\n\n", userName)
		if s.Type != nil && *s.Type == model.TypeBug {
			b.WriteString("Great news! The bug you reported has been resolved.\n\n")
		} else {
			b.WriteString("Your feedback has been addressed and marked as resolved.\n\n")
		}
		fmt.Fprintf(&b, "Subject: %s\n\n", s.Subject)
		if s.ResolutionNotes != nil && *s.ResolutionNotes != "" {
			fmt.Fprintf(&b, "Resolution Details:\n%s\n\n", *s.ResolutionNotes)
		}
		if s.AdminReply != nil && *s.AdminReply != "" {
			fmt.Fprintf(&b, "Previous Response:\n%s\n\n", *s.AdminReply)
		}
		if n.AttachmentURL != "" {
			fmt.Fprintf(&b, "Your Screenshot: %s\n\n", n.AttachmentURL)
		}
		b.WriteString("Thank you for helping us improve!\n")
		return Mail{
			To:      userEmail,
			Subject: fmt.Sprintf("%s Resolved: %s", label, s.Subject),
			Body:    b.String(),
		}, nil
	}
	return Mail{}, fmt.Errorf("unknown event %q", n.Event)
}
