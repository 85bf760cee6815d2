// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/context"

	"github.com/gdamore/taskman"
)

const (
	// How long one-shot requests may take.
	requestTimeout = 5 * time.Second

	// Cached responses are only useful for revalidation, so they need
	// not live long.
	cacheExpiration = 10 * time.Minute
	cacheCleanup    = 30 * time.Minute
)

type LogInfo struct {
	etag    string
	Records []LogRecord
}

// cached is a response body saved for revalidation with If-None-Match.
type cached struct {
	etag string
	body []byte
}

type Client struct {
	user   string // HTTP Basic-Auth
	pass   string
	base   string // URI to root of tree on server
	auth   bool
	client *http.Client
	cache  *gocache.Cache
}

func (c *Client) SetAuth(user string, pass string) {
	c.user = user
	c.pass = pass
	c.auth = true
}

func (c *Client) url(path string) string {
	return c.base + path
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, e := http.NewRequest(method, url, body)
	if e != nil {
		return nil, e
	}
	if c.auth {
		req.SetBasicAuth(c.user, c.pass)
	}
	return req.WithContext(ctx), nil
}

// readError converts a failed response into an *Error.
func readError(res *http.Response) error {
	e := &Error{}
	if body, err := io.ReadAll(res.Body); err == nil {
		if json.Unmarshal(body, e) == nil && e.Code != 0 {
			return e
		}
	}
	return &Error{Code: res.StatusCode, Message: res.Status}
}

// poll issues an HTTP GET against the URL and decodes the JSON result
// into v.  If a previous response is cached, it is revalidated with
// If-None-Match, and reused if unchanged.  If etag is not empty and wait
// is positive, the server is asked to hold the request for up to wait
// seconds until the resource differs from etag.  The new etag is
// returned.
func (c *Client) poll(ctx context.Context, url string, etag string, wait int, v interface{}) (string, error) {

	req, e := c.newRequest(ctx, "GET", url, nil)
	if e != nil {
		return "", e
	}
	var prev *cached
	if x, found := c.cache.Get(url); found {
		prev = x.(*cached)
		req.Header.Set("If-None-Match", prev.etag)
	}
	if etag != "" && wait > 0 {
		req.Header.Set(PollEtagHeader, etag)
		req.Header.Set(PollTimeHeader, strconv.Itoa(wait))
	}

	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()

	var body []byte
	switch res.StatusCode {
	case http.StatusNotModified:
		if prev == nil {
			return "", &Error{Code: res.StatusCode, Message: res.Status}
		}
		body = prev.body
		etag = prev.etag
	case http.StatusOK:
		if body, e = io.ReadAll(res.Body); e != nil {
			return "", e
		}
		etag = res.Header.Get("Etag")
		if etag != "" {
			c.cache.Set(url, &cached{etag: etag, body: body},
				gocache.DefaultExpiration)
		}
	default:
		c.cache.Delete(url)
		return "", readError(res)
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return etag, nil
}

// send issues a non-GET request, optionally with a JSON body, and
// decodes any JSON result into v (which may be nil).
func (c *Client) send(method string, url string, in interface{}, v interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, e := json.Marshal(in)
		if e != nil {
			return e
		}
		body = bytes.NewReader(b)
	}
	req, e := c.newRequest(ctx, method, url, body)
	if e != nil {
		return e
	}
	if in != nil {
		req.Header.Set("Content-Type", mimeJson)
	}
	res, e := c.client.Do(req)
	if e != nil {
		return e
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return readError(res)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(v)
}

// Info returns summary information about the registry.
func (c *Client) Info() (*RegistryInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	info := &RegistryInfo{}
	etag, e := c.poll(ctx, c.url("/"), "", 0, info)
	if e != nil {
		return nil, e
	}
	info.etag = etag
	return info, nil
}

// Watch waits for the registry to change from the state identified by
// etag, and returns the new etag.  If nothing changed before the server
// gave up waiting, the same etag is returned.  An empty etag returns
// the current one immediately.
func (c *Client) Watch(ctx context.Context, etag string) (string, error) {
	info := &RegistryInfo{}
	return c.poll(ctx, c.url("/"), etag, MaxPollTime, info)
}

// List returns the entries in the given order.
func (c *Client) List(order taskman.ListOption) ([]*EntryInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	v := []*EntryInfo{}
	u := c.url("/entries?order=" + url.QueryEscape(order.String()))
	if _, e := c.poll(ctx, u, "", 0, &v); e != nil {
		return nil, e
	}
	return v, nil
}

// Get returns a single entry.
func (c *Client) Get(id string) (*EntryInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	v := &EntryInfo{}
	if _, e := c.poll(ctx, c.url("/entries/"+url.PathEscape(id)), "", 0, v); e != nil {
		return nil, e
	}
	return v, nil
}

// Add asks the server to create an entry with the given priority.  A
// zero policy leaves the choice to the server.
func (c *Client) Add(p taskman.Priority, policy taskman.AddPolicy) (*AddResult, error) {
	v := &AddResult{}
	req := &AddRequest{Priority: p, Policy: policy}
	if e := c.send("POST", c.url("/entries"), req, v); e != nil {
		return nil, e
	}
	return v, nil
}

func (c *Client) Kill(id string) error {
	return c.send("DELETE", c.url("/entries/"+url.PathEscape(id)), nil, nil)
}

func (c *Client) KillPriority(p taskman.Priority) error {
	u := c.url("/entries?priority=" + url.QueryEscape(p.String()))
	return c.send("DELETE", u, nil, nil)
}

func (c *Client) KillAll() error {
	return c.send("DELETE", c.url("/entries"), nil, nil)
}

func (c *Client) pollLog(ctx context.Context, secs int, last *LogInfo) (*LogInfo, error) {
	otag := ""
	if last != nil {
		otag = last.etag
	}
	v := &LogInfo{}
	etag, e := c.poll(ctx, c.url("/log"), otag, secs, &v.Records)
	if e != nil {
		return nil, e
	}
	v.etag = etag
	return v, nil
}

func (c *Client) GetLog() (*LogInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return c.pollLog(ctx, 0, nil)
}

// WatchLog waits for the log to move past last, which may be nil.
func (c *Client) WatchLog(ctx context.Context, last *LogInfo) (*LogInfo, error) {
	return c.pollLog(ctx, MaxPollTime, last)
}

// NewClient returns a Client handle.  The transport may be nil to use
// a default transport, but it may also be adjusted to support additional
// options such as TLS.  baseURI is the base URL to use.
func NewClient(t *http.Transport, baseURI string) *Client {
	if t == nil {
		t = &http.Transport{}
	}
	c := &Client{
		base:   strings.TrimRight(baseURI, "/"),
		client: &http.Client{Transport: t},
		cache:  gocache.New(cacheExpiration, cacheCleanup),
	}
	return c
}
