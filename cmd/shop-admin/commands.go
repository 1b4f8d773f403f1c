package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/99minutos/shop-admin/internal/client/adminapi"
	"github.com/99minutos/shop-admin/internal/client/session"
	"github.com/99minutos/shop-admin/internal/core/domain"
)

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// command runs one panel subcommand and returns the value to print.
type command func(ctx context.Context, args []string) (any, error)

// dispatch runs args and returns the operation name used in failure notices.
func (a *app) dispatch(ctx context.Context, args []string) (string, error) {
	name, rest := args[0], args[1:]
	switch name {
	case "login":
		if len(rest) != 2 {
			return name, usagef("login takes <email> <password>")
		}
		res, err := a.session.Login(ctx, rest[0], rest[1])
		if err != nil {
			return name, err
		}
		return name, a.print(map[string]any{"user": res.User, "state": a.session.State()})

	case "register":
		fs := newFlagSet(name)
		role := fs.String("role", "", "account role")
		pos, err := parseInterspersed(fs, rest)
		if err != nil {
			return name, err
		}
		if len(pos) != 3 {
			return name, usagef("register takes <username> <email> <password>")
		}
		res, err := a.session.Register(ctx, pos[0], pos[1], pos[2], *role)
		if err != nil {
			return name, err
		}
		return name, a.print(map[string]any{"user": res.User, "state": a.session.State()})

	case "logout":
		// A session that cannot be restored is already gone.
		if _, err := a.client.Bootstrap(ctx); err == nil {
			if err := a.session.Logout(ctx); err != nil {
				return name, err
			}
		}
		return name, a.print(map[string]string{"message": "signed out"})

	case "whoami":
		user, err := a.client.Bootstrap(ctx)
		if err != nil {
			return name, err
		}
		return name, a.print(user)

	case string(domain.PanelAdmin), string(domain.PanelOperator):
		return a.runPanel(ctx, domain.Panel(name), rest)
	}
	return "", usagef("unknown command %q", name)
}

func (a *app) runPanel(ctx context.Context, panel domain.Panel, args []string) (string, error) {
	commands := a.adminCommands()
	if panel == domain.PanelOperator {
		commands = a.operatorCommands()
	}
	if len(args) == 0 {
		return "", usagef("%s needs a subcommand", panel)
	}
	run, ok := commands[args[0]]
	if !ok {
		return "", usagef("unknown %s subcommand %q", panel, args[0])
	}
	op := string(panel) + " " + args[0]

	if _, err := a.client.Bootstrap(ctx); err != nil {
		return op, err
	}
	if err := a.session.WaitReady(ctx); err != nil {
		return op, err
	}
	if err := session.RequirePanel(a.session.User(), panel); err != nil {
		return op, err
	}

	v, err := run(ctx, args[1:])
	if err != nil {
		return op, err
	}
	return op, a.print(v)
}

func (a *app) adminCommands() map[string]command {
	c := a.client
	return map[string]command{
		"stats": func(ctx context.Context, _ []string) (any, error) {
			return c.AdminStats(ctx)
		},
		"products": func(ctx context.Context, args []string) (any, error) {
			q, err := pageQuery("products", args)
			if err != nil {
				return nil, err
			}
			return c.ListProducts(ctx, q)
		},
		"product-create": a.createProduct,
		"product-update": a.updateProduct,
		"product-delete": func(ctx context.Context, args []string) (any, error) {
			if len(args) != 1 {
				return nil, usagef("product-delete takes <id>")
			}
			return deleted(c.DeleteProduct(ctx, args[0]))
		},
		"categories": func(ctx context.Context, args []string) (any, error) {
			q, err := pageQuery("categories", args)
			if err != nil {
				return nil, err
			}
			return c.ListCategories(ctx, q)
		},
		"category-create": func(ctx context.Context, args []string) (any, error) {
			if len(args) != 1 {
				return nil, usagef("category-create takes <name>")
			}
			return c.CreateCategory(ctx, args[0])
		},
		"category-update": func(ctx context.Context, args []string) (any, error) {
			if len(args) != 2 {
				return nil, usagef("category-update takes <id> <name>")
			}
			return c.UpdateCategory(ctx, args[0], args[1])
		},
		"category-delete": func(ctx context.Context, args []string) (any, error) {
			if len(args) != 1 {
				return nil, usagef("category-delete takes <id>")
			}
			return deleted(c.DeleteCategory(ctx, args[0]))
		},
		"orders": func(ctx context.Context, args []string) (any, error) {
			q, err := pageQuery("orders", args)
			if err != nil {
				return nil, err
			}
			return c.ListOrders(ctx, q)
		},
		"order":        a.getOrder,
		"order-status": a.setOrderStatus,
		"order-assign": func(ctx context.Context, args []string) (any, error) {
			if len(args) != 2 {
				return nil, usagef("order-assign takes <order-id> <operator-id>")
			}
			return c.AssignOrder(ctx, args[0], args[1])
		},
		"operators": func(ctx context.Context, _ []string) (any, error) {
			return c.ListOperators(ctx)
		},
	}
}

func (a *app) operatorCommands() map[string]command {
	c := a.client
	return map[string]command{
		"orders": func(ctx context.Context, args []string) (any, error) {
			q, err := pageQuery("orders", args)
			if err != nil {
				return nil, err
			}
			return c.ListMyOrders(ctx, q)
		},
		"order":        a.getOrder,
		"order-status": a.setOrderStatus,
		"products": func(ctx context.Context, args []string) (any, error) {
			q, err := pageQuery("products", args)
			if err != nil {
				return nil, err
			}
			return c.ListProducts(ctx, q)
		},
		"product-create": a.createProduct,
		"product-update": a.updateProduct,
	}
}

func (a *app) createProduct(ctx context.Context, args []string) (any, error) {
	form, pos, err := productForm("product-create", args)
	if err != nil {
		return nil, err
	}
	if len(pos) != 0 {
		return nil, usagef("product-create takes flags only")
	}
	return a.client.CreateProduct(ctx, form)
}

func (a *app) updateProduct(ctx context.Context, args []string) (any, error) {
	form, pos, err := productForm("product-update", args)
	if err != nil {
		return nil, err
	}
	if len(pos) != 1 {
		return nil, usagef("product-update takes <id>")
	}
	return a.client.UpdateProduct(ctx, pos[0], form)
}

func (a *app) getOrder(ctx context.Context, args []string) (any, error) {
	if len(args) != 1 {
		return nil, usagef("order takes <id>")
	}
	return a.client.GetOrder(ctx, args[0])
}

func (a *app) setOrderStatus(ctx context.Context, args []string) (any, error) {
	if len(args) != 2 {
		return nil, usagef("order-status takes <id> <status>")
	}
	return a.client.UpdateOrderStatus(ctx, args[0], domain.OrderStatus(args[1]))
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deleted(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]string{"message": "deleted"}, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments and returns the positionals in order.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usagef("%s: %v", fs.Name(), err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

func pageQuery(name string, args []string) (adminapi.PageQuery, error) {
	fs := newFlagSet(name)
	page := fs.Int("page", 0, "page number")
	limit := fs.Int("limit", 0, "page size")
	pos, err := parseInterspersed(fs, args)
	if err != nil {
		return adminapi.PageQuery{}, err
	}
	if len(pos) != 0 {
		return adminapi.PageQuery{}, usagef("%s takes only -page and -limit", name)
	}
	return adminapi.PageQuery{Page: *page, Limit: *limit}, nil
}

// productForm reads the product flags. Optional numeric fields are sent only
// when their flag is given.
func productForm(name string, args []string) (domain.ProductForm, []string, error) {
	var form domain.ProductForm
	fs := newFlagSet(name)
	fs.StringVar(&form.Title, "title", "", "product title")
	fs.StringVar(&form.Description, "description", "", "product description")
	fs.Float64Var(&form.Price, "price", 0, "price")
	fs.IntVar(&form.CountInStock, "stock", 0, "units in stock")
	fs.StringVar(&form.Category, "category", "", "category id")
	fs.BoolVar(&form.StockStatus, "in-stock", false, "mark as in stock")
	fs.BoolVar(&form.FreeDelivery, "free-delivery", false, "offer free delivery")
	fs.BoolVar(&form.ReturnDelivery, "return-delivery", false, "offer return delivery")
	fs.Func("old-price", "previous price", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		form.OldPrice = &f
		return err
	})
	fs.Func("rating", "rating", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		form.Rating = &f
		return err
	})
	fs.Func("reviews", "number of reviews", func(v string) error {
		n, err := strconv.Atoi(v)
		form.NumReviews = &n
		return err
	})
	fs.Func("colours", "comma-separated colours", func(v string) error {
		form.Colours = append(form.Colours, splitList(v)...)
		return nil
	})
	fs.Func("sizes", "comma-separated sizes", func(v string) error {
		form.Sizes = append(form.Sizes, splitList(v)...)
		return nil
	})
	fs.Func("image", "image file, repeatable", func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		form.Images = append(form.Images, domain.Image{
			Filename:    filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Data:        data,
		})
		return nil
	})

	pos, err := parseInterspersed(fs, args)
	return form, pos, err
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
