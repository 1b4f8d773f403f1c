// Package adminapi is the typed client for the shop API. Each method maps to
// one server operation and goes through the authenticated request facade.
package adminapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/99minutos/shop-admin/internal/client/session"
	"github.com/99minutos/shop-admin/internal/client/transport"
	"github.com/99minutos/shop-admin/internal/core/domain"
)

const (
	defaultPageLimit     = 10
	defaultCategoryLimit = 100
)

// Sender submits authenticated requests. *transport.Facade implements it.
type Sender interface {
	Send(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// Bootstrapper restores a session. *session.Manager implements it.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, fetch session.ProfileFunc) (*domain.User, error)
}

// Client is the typed API client.
type Client struct {
	sender   Sender
	session  Bootstrapper
	baseURL  string
	validate *validator.Validate
	log      zerolog.Logger
}

// NewClient returns a Client sending through sender to baseURL.
func NewClient(sender Sender, sess Bootstrapper, baseURL string, log zerolog.Logger) *Client {
	return &Client{
		sender:   sender,
		session:  sess,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
		log:      log,
	}
}

// PageQuery selects one page of a listing. Zero fields take the listing's
// default.
type PageQuery struct {
	Page  int `validate:"gte=1"`
	Limit int `validate:"gte=1"`
}

func (q PageQuery) withDefaults(limit int) PageQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = limit
	}
	return q
}

// Bootstrap restores the durable session and loads the signed-in principal.
func (c *Client) Bootstrap(ctx context.Context) (*domain.User, error) {
	return c.session.Bootstrap(ctx, c.CurrentUser)
}

// CurrentUser returns the principal the session token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/users/current", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func pageValues(q PageQuery) url.Values {
	return url.Values{
		"page":  {strconv.Itoa(q.Page)},
		"limit": {strconv.Itoa(q.Limit)},
	}
}

// check validates a request value before anything is sent.
func (c *Client) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func (c *Client) checkID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &domain.ValidationError{Field: field, Reason: "is required"}
	}
	return nil
}

func (c *Client) send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	resp, err := c.sender.Send(ctx, req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.Method).Str("url", req.URL).Msg("api call failed")
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.send(ctx, transport.NewRequest(http.MethodGet, c.endpoint(path, query)))
	if err != nil {
		return err
	}
	return c.decode(resp, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := transport.NewJSONRequest(method, c.endpoint(path, nil), body)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.decode(resp, out)
}

// decode unmarshals a response record and validates it. out must point to a
// struct, or to the operator list.
func (c *Client) decode(resp *transport.Response, out any) error {
	if err := resp.DecodeJSON(out); err != nil {
		return &domain.ValidationError{Field: "response", Reason: fmt.Sprintf("malformed body: %v", err)}
	}
	if ops, ok := out.(*[]domain.Operator); ok {
		for i := range *ops {
			if err := c.validate.Struct(&(*ops)[i]); err != nil {
				return validationError(err)
			}
		}
		return nil
	}
	if err := c.validate.Struct(out); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &domain.ValidationError{Field: fe.Namespace(), Reason: reason}
	}
	return &domain.ValidationError{Reason: err.Error()}
}

func escape(id string) string {
	return url.PathEscape(id)
}
