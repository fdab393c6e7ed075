package netbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/a-delannoy/yaani/config"
	"github.com/a-delannoy/yaani/log"
)

// requestTimeout bounds any single directory request. The build itself
// carries no timeout; a hung directory should not hang the caller
// forever.
const requestTimeout = 30 * time.Second

// Client speaks to the NetBox REST API. It implements [Opener]; the
// endpoints it opens handle token authentication, query encoding, and
// result pagination.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger log.Logger
}

// NewClient creates a client for the configured api section.
func NewClient(api config.API) *Client {
	transport := http.DefaultTransport

	if !api.VerifySSL() {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	base := api.URL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	return &Client{
		base:  base,
		token: api.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
		logger: log.Default(),
	}
}

// Open implements [Opener]. Underscores in application and type names
// map to hyphens in URL paths (ip_addresses is served at ip-addresses/).
func (c *Client) Open(app, typ string) Endpoint {
	return &restEndpoint{
		client: c,
		path:   fmt.Sprintf("%s/api/%s/%s/", c.base, dashed(app), dashed(typ)),
	}
}

type restEndpoint struct {
	client *Client
	path   string
}

// All implements [Endpoint].
func (e *restEndpoint) All(ctx context.Context) ([]Entity, error) {
	return e.client.list(ctx, e.path, nil)
}

// Filter implements [Endpoint].
func (e *restEndpoint) Filter(
	ctx context.Context,
	args map[string]any,
) ([]Entity, error) {
	return e.client.list(ctx, e.path, args)
}

// Get implements [Endpoint].
func (e *restEndpoint) Get(ctx context.Context, id any) (Entity, error) {
	doc, err := e.client.fetch(ctx, e.path+FormatValue(id)+"/")
	if err != nil {
		return nil, err
	}

	entity, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrDecode.With(
			slog.String("url", e.path),
			slog.String("reason", "detail response is not an object"),
		)
	}

	return entity, nil
}

// list fetches every result page of a collection URL.
func (c *Client) list(
	ctx context.Context,
	path string,
	args map[string]any,
) ([]Entity, error) {
	next := path
	if len(args) > 0 {
		next = path + "?" + encodeQuery(args)
	}

	var entities []Entity

	for next != "" {
		doc, err := c.fetch(ctx, next)
		if err != nil {
			return nil, err
		}

		page, ok := doc.(map[string]any)
		if !ok {
			return nil, ErrDecode.With(
				slog.String("url", next),
				slog.String("reason", "list response is not an object"),
			)
		}

		results, ok := page["results"].([]any)
		if !ok {
			return nil, ErrDecode.With(
				slog.String("url", next),
				slog.String("reason", "missing results array"),
			)
		}

		for _, r := range results {
			entity, ok := r.(map[string]any)
			if !ok {
				return nil, ErrDecode.With(
					slog.String("url", next),
					slog.String("reason", "result is not an object"),
				)
			}

			entities = append(entities, entity)
		}

		next, _ = page["next"].(string)
	}

	return entities, nil
}

// fetch performs one GET request and parses the JSON response.
func (c *Client) fetch(ctx context.Context, rawURL string) (any, error) {
	c.logger.TraceContext(ctx, "directory fetch", slog.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ErrRequest.Wrap(err).With(slog.String("url", rawURL))
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ErrRequest.Wrap(err).With(slog.String("url", rawURL))
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrStatus.With(
			slog.String("url", rawURL),
			slog.Int("status", resp.StatusCode),
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrRequest.Wrap(err).With(slog.String("url", rawURL))
	}

	doc, err := oj.Parse(data)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("url", rawURL))
	}

	return doc, nil
}

// encodeQuery renders filter arguments as a query string. Keys are
// sorted so that identical filter sets always produce identical request
// URLs. A slice value repeats its key, which NetBox interprets as an OR
// filter.
func encodeQuery(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	values := url.Values{}

	for _, k := range keys {
		switch v := args[k].(type) {
		case []any:
			for _, item := range v {
				values.Add(k, FormatValue(item))
			}

		default:
			values.Add(k, FormatValue(v))
		}
	}

	return values.Encode()
}

// FormatValue renders a field value the way it appears in URLs and
// group or index names. Integral floats lose their trailing ".0" so that
// identifiers are stable whichever JSON decoder produced the value.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t

	case int64:
		return strconv.FormatInt(t, 10)

	case int:
		return strconv.Itoa(t)

	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)

	case bool:
		return strconv.FormatBool(t)

	default:
		return fmt.Sprintf("%v", v)
	}
}

func dashed(name string) string {
	b := []byte(name)
	for i, ch := range b {
		if ch == '_' {
			b[i] = '-'
		}
	}

	return string(b)
}
