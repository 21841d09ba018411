package api

import (
	"context"
	"net/http"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/users"
)

func methodNotAllowed() Response { return Status(http.StatusMethodNotAllowed) }

func userFieldsFrom(req Request) users.Fields {
	return users.Fields{
		FirstName:     req.String("firstName"),
		LastName:      req.String("lastName"),
		Email:         req.String("email"),
		Password:      req.String("password"),
		StreetAddress: req.String("streetAddress"),
	}
}

func (rt *Router) users(ctx context.Context, req Request) Response {
	switch req.Method {
	case "post":
		if err := rt.Users.Create(ctx, userFieldsFrom(req)); err != nil {
			return Error(rt.Logger, err)
		}
		return Status(http.StatusOK)
	case "get":
		p, err := rt.Users.Get(ctx, req.Token(), req.QueryString("email"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(p)
	case "put":
		if err := rt.Users.Update(ctx, req.Token(), userFieldsFrom(req)); err != nil {
			return Error(rt.Logger, err)
		}
		return Status(http.StatusOK)
	case "delete":
		if err := rt.Users.Delete(ctx, req.Token(), req.String("email")); err != nil {
			return Error(rt.Logger, err)
		}
		return Status(http.StatusOK)
	default:
		return methodNotAllowed()
	}
}

func (rt *Router) tokens(ctx context.Context, req Request) Response {
	switch req.Method {
	case "post":
		tok, err := rt.Tokens.Create(ctx, req.String("email"), req.String("password"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(tok)
	case "get":
		tok, err := rt.Tokens.Get(ctx, req.QueryString("id"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(tok)
	case "put":
		if _, err := rt.Tokens.Extend(ctx, req.String("id"), req.Bool("extend")); err != nil {
			return Error(rt.Logger, err)
		}
		return Status(http.StatusOK)
	case "delete":
		if err := rt.Tokens.Delete(ctx, req.QueryString("id")); err != nil {
			return Error(rt.Logger, err)
		}
		return Status(http.StatusOK)
	default:
		return methodNotAllowed()
	}
}

func (rt *Router) menu(ctx context.Context, req Request) Response {
	if req.Method != "get" {
		return methodNotAllowed()
	}
	items, err := rt.Menu.List(ctx, req.Token(), req.QueryString("email"))
	if err != nil {
		return Error(rt.Logger, err)
	}
	return OK(items)
}

func (rt *Router) carts(ctx context.Context, req Request) Response {
	switch req.Method {
	case "get":
		items, err := rt.Carts.Get(ctx, req.Token(), req.QueryString("email"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(items)
	case "post":
		item, err := rt.Carts.Add(ctx, req.Token(), req.String("email"), req.String("itemId"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(item)
	case "delete":
		item, err := rt.Carts.Remove(ctx, req.Token(), req.String("email"), req.String("itemId"))
		if err != nil {
			return Error(rt.Logger, err)
		}
		return OK(item)
	default:
		return methodNotAllowed()
	}
}

func (rt *Router) order(ctx context.Context, req Request) Response {
	if req.Method != "post" {
		return methodNotAllowed()
	}
	placed, err := rt.Orders.Place(ctx, req.Token(), req.String("email"))
	if err != nil {
		return Error(rt.Logger, err)
	}
	return OK(placed.IntentJSON())
}
