package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/cartclient"
)

// session is one storefront browsing session: an HTTP client whose cookie
// jar carries the cart token, persisted between runs in tokenFile.
type session struct {
	base       *url.URL
	httpClient *http.Client
	client     *cartclient.Client
	cookieName string
	tokenFile  string
	logger     *zap.Logger
}

func defaultTokenFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "storefront", "cart-token")
}

func openSession() (*session, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	s := &session{
		base:       base,
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		cookieName: cfg.CartCookieName,
		tokenFile:  tokenFile,
		logger:     logger,
	}
	if token, err := s.readToken(); err != nil {
		logger.Warn("could not read cart token", zap.String("file", s.tokenFile), zap.Error(err))
	} else if token != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: s.cookieName, Value: token, Path: "/"}})
		logger.Debug("resumed cart session", zap.String("file", s.tokenFile))
	}

	s.client, err = cartclient.New(cartclient.Config{
		BaseURL:    base.String(),
		HTTPClient: s.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) readToken() (string, error) {
	if s.tokenFile == "" {
		return "", nil
	}
	raw, err := os.ReadFile(s.tokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// saveToken writes the current cart token, if the server issued one.
func (s *session) saveToken() error {
	if s.tokenFile == "" {
		return nil
	}
	for _, c := range s.httpClient.Jar.Cookies(s.base) {
		if c.Name != s.cookieName || c.Value == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0o700); err != nil {
			return fmt.Errorf("save cart token: %w", err)
		}
		if err := os.WriteFile(s.tokenFile, []byte(c.Value+"\n"), 0o600); err != nil {
			return fmt.Errorf("save cart token: %w", err)
		}
		return nil
	}
	return nil
}
