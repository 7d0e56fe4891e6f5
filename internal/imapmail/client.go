package imapmail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/sirupsen/logrus"

	"promosweep/internal/model"
)

// ErrAuth is returned when the server rejects the login.
var ErrAuth = errors.New("imap authentication failed")

// Config holds the connection settings for one IMAP account.
type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	TLS          bool
	Mailbox      string
	TrashMailbox string
}

// Client adapts an IMAP mailbox to the triage provider surface. Message ids
// are decimal UIDs of the selected mailbox. The connection is opened on first
// use and kept for the life of the Client.
type Client struct {
	cfg Config
	log logrus.FieldLogger

	mu   sync.Mutex
	conn *imapclient.Client
}

func New(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.TrashMailbox == "" {
		cfg.TrashMailbox = "Trash"
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Client{cfg: cfg, log: log}
}

// Connect opens the session eagerly so login failures surface before any
// triage work starts.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.session(ctx)
	return err
}

func (c *Client) session(ctx context.Context) (*imapclient.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	var (
		conn *imapclient.Client
		err  error
	)
	if c.cfg.TLS {
		conn, err = imapclient.DialTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: c.cfg.Host},
		})
	} else {
		conn, err = imapclient.DialStartTLS(addr, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: c.cfg.Host},
		})
	}
	if err != nil {
		return nil, fmt.Errorf("imap connect %s: %w", addr, err)
	}

	if err := conn.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w for %s: %v", ErrAuth, c.cfg.Username, err)
	}
	if _, err := conn.Select(c.cfg.Mailbox, nil).Wait(); err != nil {
		_ = conn.Logout().Wait()
		_ = conn.Close()
		return nil, fmt.Errorf("imap select %s: %w", c.cfg.Mailbox, err)
	}
	c.log.WithFields(logrus.Fields{"addr": addr, "mailbox": c.cfg.Mailbox}).Debug("imap connected")
	c.conn = conn
	return conn, nil
}

func (c *Client) ListMessages(ctx context.Context, query, pageToken string, pageSize int) (model.ListPage, error) {
	criteria, err := ParseQuery(query)
	if err != nil {
		return model.ListPage{}, err
	}
	conn, err := c.session(ctx)
	if err != nil {
		return model.ListPage{}, err
	}
	data, err := conn.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return model.ListPage{}, fmt.Errorf("imap search: %w", err)
	}
	ids, next, err := pageUIDs(data.AllUIDs(), pageToken, pageSize)
	if err != nil {
		return model.ListPage{}, err
	}
	c.log.WithFields(logrus.Fields{
		"query": query,
		"page":  pageToken,
		"count": len(ids),
	}).Debug("imap list")
	return model.ListPage{IDs: ids, NextPageToken: next}, nil
}

func (c *Client) GetMessage(ctx context.Context, id string, format model.Format, metadataHeaders ...string) (*model.Message, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	conn, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	section := &imap.FetchItemBodySection{Peek: true}
	if format == model.FormatMetadata {
		section.Specifier = imap.PartSpecifierHeader
	}
	bufs, err := conn.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	if len(bufs) == 0 {
		return nil, fmt.Errorf("get message %s: not found", id)
	}
	raw := bufs[0].FindBodySection(section)
	if raw == nil {
		return nil, fmt.Errorf("get message %s: empty body section", id)
	}

	if format == model.FormatMetadata {
		return parseHeaderOnly(id, raw, metadataHeaders)
	}
	return parseFull(id, raw)
}

func (c *Client) TrashMessage(ctx context.Context, id string) error {
	uid, err := parseUID(id)
	if err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	conn, err := c.session(ctx)
	if err != nil {
		return err
	}
	if _, err := conn.Move(imap.UIDSetNum(uid), c.cfg.TrashMailbox).Wait(); err != nil {
		return fmt.Errorf("trash message %s: %w", id, err)
	}
	c.log.WithField("uid", id).Debug("imap move to trash")
	return nil
}

// Close logs out and closes the connection if one was opened.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.Logout().Wait()
	err := c.conn.Close()
	c.conn = nil
	return err
}
