package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/web"
)

func (rt *Router) page(p web.Page) HandlerFunc {
	return func(_ context.Context, req Request) Response {
		if req.Method != "get" {
			return Response{Status: http.StatusMethodNotAllowed, Type: TypeHTML}
		}
		html, err := rt.Renderer.Page(p.Template, p.Data)
		if err != nil {
			rt.Logger.Printf("[Web] render %s: %v", p.Template, err)
			return Response{Status: http.StatusInternalServerError, Type: TypeHTML}
		}
		return Response{Status: http.StatusOK, Type: TypeHTML, Body: html}
	}
}

func (rt *Router) favicon(_ context.Context, req Request) Response {
	if req.Method != "get" {
		return Status(http.StatusMethodNotAllowed)
	}
	data, err := rt.Assets.Read("favicon.ico")
	if err != nil {
		return Status(http.StatusInternalServerError)
	}
	return Response{Status: http.StatusOK, Type: web.TypeFavicon, Body: data}
}

func (rt *Router) public(_ context.Context, req Request) Response {
	if req.Method != "get" {
		return Status(http.StatusMethodNotAllowed)
	}
	name := strings.TrimSpace(strings.Replace(req.Path, "public/", "", 1))
	data, err := rt.Assets.Read(name)
	if err != nil {
		if !errors.Is(err, web.ErrAssetNotFound) {
			rt.Logger.Printf("[Web] asset %s: %v", name, err)
		}
		return Status(http.StatusBadRequest)
	}
	return Response{Status: http.StatusOK, Type: web.AssetType(name), Body: data}
}
