package gmail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"promosweep/internal/credential"
	"promosweep/internal/util"
)

// redirectTimeout bounds the wait for the loopback redirect before falling
// back to a pasted code.
const redirectTimeout = 120 * time.Second

// NewService initializes an OAuth-backed Gmail service. Client credentials
// come from credentialsFile and the token is cached in tokens. A cached token
// that fails a profile lookup is cleared and the browser flow runs again.
// Scope: gmail.modify (list, read, trash).
func NewService(ctx context.Context, credentialsFile string, tokens credential.TokenStore, log logrus.FieldLogger) (*gmailv1.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials at %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, gmailv1.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	tok, err := tokens.Load()
	if err == nil {
		svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
		if err == nil {
			_, err = svc.Users.GetProfile("me").Context(ctx).Do()
		}
		if err == nil {
			return svc, nil
		}
		log.WithError(err).Warn("cached token rejected, re-authenticating")
		if err := tokens.Clear(); err != nil {
			log.WithError(err).Warn("clear cached token")
		}
	} else if !errors.Is(err, credential.ErrNotFound) {
		log.WithError(err).Warn("load cached token")
	}

	tok, err = tokenFromWeb(ctx, cfg, os.Stdin, os.Stderr)
	if err != nil {
		return nil, err
	}
	if err := tokens.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	svc, err := gmailv1.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// tokenFromWeb runs a loopback HTTP server to capture the auth code.
// If that fails or times out, it falls back to manual paste (code or URL).
func tokenFromWeb(ctx context.Context, cfg *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	resCh := make(chan string, 1)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err == nil {
		port := ln.Addr().(*net.TCPAddr).Port
		redirect := fmt.Sprintf("http://127.0.0.1:%d/", port)
		oldRedirect := cfg.RedirectURL
		cfg.RedirectURL = redirect

		mux := http.NewServeMux()
		srv := &http.Server{
			ReadHeaderTimeout: 5 * time.Second,
			Handler:           mux,
		}
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "Missing 'code' parameter", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authentication complete. You can close this window.")
			select {
			case resCh <- code:
			default:
			}
		})
		go func() { _ = srv.Serve(ln) }()
		defer srv.Shutdown(context.Background())

		authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
		fmt.Fprintln(out, "A browser window will open. If it does not, copy this URL:")
		fmt.Fprintln(out, authURL)
		fmt.Fprintf(out, "Waiting for redirect on %s\n", redirect)
		_ = util.OpenLink(authURL)

		select {
		case <-ctx.Done():
			cfg.RedirectURL = oldRedirect
			return nil, ctx.Err()
		case code := <-resCh:
			// The exchange must use the same redirect as the auth request.
			tok, err := exchange(ctx, cfg, code, out)
			cfg.RedirectURL = oldRedirect
			return tok, err
		case <-time.After(redirectTimeout):
			cfg.RedirectURL = oldRedirect
			fmt.Fprintln(out, "Timeout waiting for redirect; falling back to manual paste.")
		}
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintln(out, "Open this URL in your browser to authorize promosweep:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Paste the AUTH CODE itself or the FULL redirect URL here, then press Enter.")
	fmt.Fprint(out, "> ")

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read auth code: %w", err)
		}
		return nil, errors.New("empty authorization code")
	}
	code, err := codeFromInput(sc.Text())
	if err != nil {
		return nil, err
	}
	return exchange(ctx, cfg, code, out)
}

func exchange(ctx context.Context, cfg *oauth2.Config, code string, out io.Writer) (*oauth2.Token, error) {
	fmt.Fprintln(out, "Exchanging code for token...")
	tok, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	fmt.Fprintln(out, "Authentication successful.")
	return tok, nil
}

// codeFromInput accepts either a bare auth code or the full redirect URL.
func codeFromInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty authorization code")
	}
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	c := u.Query().Get("code")
	if c == "" {
		return "", errors.New("no 'code' parameter found in pasted URL")
	}
	return c, nil
}
