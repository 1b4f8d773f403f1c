package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// FileJar is a cookie jar mirrored to a JSON file so the refresh cookie
// survives process restarts the way a browser profile does. Only name and
// value are kept; cookies are restored as session cookies and the server
// stays the judge of their validity.
type FileJar struct {
	inner *cookiejar.Jar
	path  string

	mu   sync.Mutex
	seen map[string]*url.URL
}

type jarFile struct {
	Entries []jarEntry `json:"entries"`
}

type jarEntry struct {
	URL     string      `json:"url"`
	Cookies []jarCookie `json:"cookies"`
}

type jarCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewJar returns an in-memory jar when path is empty, otherwise a FileJar
// loaded from path. A missing file is not an error.
func NewJar(path string) (http.CookieJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if path == "" {
		return inner, nil
	}

	j := &FileJar{inner: inner, path: path, seen: make(map[string]*url.URL)}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	key := jarKey(u)
	if _, ok := j.seen[key]; !ok {
		j.seen[key] = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}
	// A failed write only costs the cookie on the next start.
	_ = j.save()
}

func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *FileJar) load() error {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookie jar: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var f jarFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode cookie jar %s: %w", j.path, err)
	}
	for _, e := range f.Entries {
		u, err := url.Parse(e.URL)
		if err != nil || u.Host == "" {
			continue
		}
		cookies := make([]*http.Cookie, 0, len(e.Cookies))
		for _, c := range e.Cookies {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		j.inner.SetCookies(u, cookies)
		j.seen[jarKey(u)] = u
	}
	return nil
}

// save must be called with mu held.
func (j *FileJar) save() error {
	f := jarFile{Entries: make([]jarEntry, 0, len(j.seen))}
	for _, u := range j.seen {
		entry := jarEntry{URL: u.String()}
		for _, c := range j.inner.Cookies(u) {
			entry.Cookies = append(entry.Cookies, jarCookie{Name: c.Name, Value: c.Value})
		}
		if len(entry.Cookies) > 0 {
			f.Entries = append(f.Entries, entry)
		}
	}

	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o700); err != nil {
		return err
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, j.path)
}

func jarKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// NewHTTPClient returns the client shared by the session manager and the
// facade. Both must use the same jar so refresh sees the cookie login set.
func NewHTTPClient(timeout time.Duration, jar http.CookieJar) *http.Client {
	return &http.Client{Timeout: timeout, Jar: jar}
}
