package gmail

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	gmailv1 "google.golang.org/api/gmail/v1"

	"promosweep/internal/model"
)

// Client adapts the Gmail API to the triage provider surface. Query strings
// are passed to Gmail unchanged.
type Client struct {
	svc  *gmailv1.Service
	user string
	log  logrus.FieldLogger
}

func NewClient(svc *gmailv1.Service, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Client{svc: svc, user: "me", log: log}
}

func (c *Client) ListMessages(ctx context.Context, query, pageToken string, pageSize int) (model.ListPage, error) {
	call := c.svc.Users.Messages.List(c.user).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	if pageSize > 0 {
		call = call.MaxResults(int64(pageSize))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return model.ListPage{}, fmt.Errorf("list messages: %w", err)
	}

	page := model.ListPage{
		IDs:           make([]string, 0, len(resp.Messages)),
		NextPageToken: resp.NextPageToken,
	}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}
	c.log.WithFields(logrus.Fields{
		"query": query,
		"page":  pageToken,
		"count": len(page.IDs),
	}).Debug("gmail list")
	return page, nil
}

func (c *Client) GetMessage(ctx context.Context, id string, format model.Format, metadataHeaders ...string) (*model.Message, error) {
	call := c.svc.Users.Messages.Get(c.user, id).Format(string(format)).Context(ctx)
	if format == model.FormatMetadata && len(metadataHeaders) > 0 {
		call = call.MetadataHeaders(metadataHeaders...)
	}
	msg, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return messageFromAPI(msg), nil
}

func (c *Client) TrashMessage(ctx context.Context, id string) error {
	if _, err := c.svc.Users.Messages.Trash(c.user, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	c.log.WithField("id", id).Debug("gmail trash")
	return nil
}

func messageFromAPI(msg *gmailv1.Message) *model.Message {
	m := &model.Message{ID: msg.Id, Snippet: msg.Snippet}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		m.Headers = append(m.Headers, model.Header{Name: h.Name, Value: h.Value})
	}
	m.Parts = flattenParts(msg.Payload)
	return m
}
