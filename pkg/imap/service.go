package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Service implements syncdomain.MailProvider over IMAP for non-Gmail accounts
type Service struct {
	host     string
	port     string
	username string
	password string
}

func NewService(host, port, username, password string) *Service {
	return &Service{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// FetchSince connects, searches INBOX for messages since the checkpoint date
// and returns them oldest first. IMAP SEARCH SINCE has day granularity, so the
// strict receivedAt filter below does the fine-grained cut.
func (s *Service) FetchSince(ctx context.Context, since time.Time, sinceMessageID string) ([]*syncdomain.MailMessage, error) {
	c, err := client.DialTLS(s.host+":"+s.port, nil)
	if err != nil {
		return nil, classifyIMAPError(err)
	}
	defer c.Logout()

	if err := c.Login(s.username, s.password); err != nil {
		return nil, classifyIMAPError(err)
	}

	// Read-only select: fetching must not flip \Seen flags
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, classifyIMAPError(err)
	}

	criteria := imap.NewSearchCriteria()
	if !since.IsZero() {
		criteria.Since = since.Truncate(24 * time.Hour)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, classifyIMAPError(err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	// Peek so the fetch leaves messages unread
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, imap.FetchInternalDate, section.FetchItem()}

	imapMessages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, imapMessages)
	}()

	var messages []*syncdomain.MailMessage
	for imapMsg := range imapMessages {
		msg := convertIMAPMessage(imapMsg, section)
		if msg == nil {
			continue
		}
		if !msg.ReceivedAt.After(since) {
			continue
		}
		if msg.ID == sinceMessageID {
			continue
		}
		messages = append(messages, msg)
	}

	if err := <-done; err != nil {
		return messages, classifyIMAPError(err)
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})

	return messages, nil
}

func convertIMAPMessage(imapMsg *imap.Message, section *imap.BodySectionName) *syncdomain.MailMessage {
	if imapMsg.Envelope == nil {
		return nil
	}

	// Message-ID is provider-unique; fall back to the UID when a broken
	// sender omits it
	id := imapMsg.Envelope.MessageId
	if id == "" {
		id = fmt.Sprintf("uid-%d", imapMsg.Uid)
	}

	sender := ""
	if len(imapMsg.Envelope.From) > 0 {
		sender = formatAddress(imapMsg.Envelope.From[0])
	}

	return &syncdomain.MailMessage{
		ID:         id,
		ReceivedAt: imapMsg.InternalDate,
		Sender:     sender,
		Subject:    imapMsg.Envelope.Subject,
		BodyText:   extractBodyText(imapMsg.GetBody(section)),
	}
}

// extractBodyText walks the MIME structure and returns the first text/plain
// part, or an empty string if there is none we can read
func extractBodyText(r io.Reader) string {
	if r == nil {
		return ""
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		log.Printf("[IMAP] Failed to parse message body: %v", err)
		return ""
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		if h, ok := p.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if contentType == "text/plain" {
				data, err := io.ReadAll(p.Body)
				if err == nil {
					return string(data)
				}
			}
		}
	}

	return ""
}

func formatAddress(addr *imap.Address) string {
	email := addr.MailboxName + "@" + addr.HostName
	if addr.PersonalName != "" {
		return addr.PersonalName + " <" + email + ">"
	}
	return email
}

// classifyIMAPError maps IMAP failures onto the sync error taxonomy.
// Throttling shows up as untagged NO responses mentioning rate limits.
func classifyIMAPError(err error) error {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "throttl") || strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many") {
		return &syncdomain.RateLimitedError{Err: err}
	}
	return &syncdomain.FetchError{Err: err}
}
