package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc func(token *oauth2.Token) error

// Service implements syncdomain.MailProvider against the Gmail API.
// It holds the OAuth client credentials plus the connected mailbox's tokens.
type Service struct {
	clientID     string
	clientSecret string
	accessToken  string
	refreshToken string
	onRefresh    TokenUpdateFunc
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret, accessToken, refreshToken string, onRefresh TokenUpdateFunc) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		onRefresh:    onRefresh,
	}
}

// getGmailService creates a Gmail API client with the connected mailbox's tokens
func (s *Service) getGmailService(ctx context.Context) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if s.refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	tokenSource := config.TokenSource(ctx, token)

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      tokenSource,
		current:  token,
		callback: s.onRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// FetchSince lists messages received strictly after the checkpoint, oldest
// first. It pages with pageToken until the mailbox is drained. On a paging
// failure the messages fetched so far are returned alongside the error so the
// caller can keep partial progress.
func (s *Service) FetchSince(ctx context.Context, since time.Time, sinceMessageID string) ([]*syncdomain.MailMessage, error) {
	srv, err := s.getGmailService(ctx)
	if err != nil {
		return nil, &syncdomain.FetchError{Err: err}
	}

	user := "me"

	// Gmail's after: operator has day granularity with a date and second
	// granularity with a unix timestamp, so use the timestamp. The strict
	// receivedAt filter below removes same-second duplicates.
	q := ""
	if !since.IsZero() {
		q = fmt.Sprintf("after:%d", since.Unix())
	}

	var messages []*syncdomain.MailMessage
	pageToken := ""

	for {
		listQuery := srv.Users.Messages.List(user).MaxResults(500)
		if q != "" {
			listQuery = listQuery.Q(q)
		}
		if pageToken != "" {
			listQuery = listQuery.PageToken(pageToken)
		}

		resp, err := listQuery.Context(ctx).Do()
		if err != nil {
			return messages, classifyGmailError(err)
		}

		for _, ref := range resp.Messages {
			fullMsg, err := srv.Users.Messages.Get(user, ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				return messages, classifyGmailError(err)
			}

			msg := convertGmailMessage(fullMsg)
			if !msg.ReceivedAt.After(since) {
				continue
			}
			if msg.ID == sinceMessageID {
				continue
			}
			messages = append(messages, msg)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	// The list endpoint returns newest first; the orchestrator wants oldest first
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.Before(messages[j].ReceivedAt)
	})

	return messages, nil
}

// classifyGmailError maps Gmail API failures onto the sync error taxonomy
func classifyGmailError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return &syncdomain.RateLimitedError{Err: err}
	}
	return &syncdomain.FetchError{Err: err}
}

func convertGmailMessage(msg *gmail.Message) *syncdomain.MailMessage {
	from := getHeader(msg.Payload.Headers, "From")
	body := getEmailBody(msg.Payload)

	return &syncdomain.MailMessage{
		ID:         msg.Id,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
		Sender:     from,
		Subject:    getHeader(msg.Payload.Headers, "Subject"),
		BodyText:   body,
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}

// getEmailBody returns the message body as plain text, preferring the
// text/plain part and stripping tags from HTML-only messages
func getEmailBody(payload *gmail.MessagePart) string {
	// If the payload itself is the body
	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			if payload.MimeType == "text/html" {
				return stripHTML(string(data))
			}
			return string(data)
		}
	}

	var htmlBody string
	var plainBody string

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.MimeType == "text/plain" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						plainBody = string(data)
					}
				}
			} else if part.MimeType == "text/html" {
				if part.Body != nil && part.Body.Data != "" {
					data, err := base64.URLEncoding.DecodeString(part.Body.Data)
					if err == nil {
						htmlBody = string(data)
					}
				}
			}

			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}

	findBody(payload.Parts)

	if plainBody != "" {
		return plainBody
	}
	return stripHTML(htmlBody)
}

func stripHTML(html string) string {
	re := regexp.MustCompile(`<[^>]*>`)
	text := re.ReplaceAllString(html, " ")
	// Unescape HTML entities (basic ones)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	// Collapse multiple spaces into one
	return strings.Join(strings.Fields(text), " ")
}
