package main

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/Brownie44l1/minihttp/internal/request"
	"github.com/Brownie44l1/minihttp/internal/response"
	"github.com/Brownie44l1/minihttp/internal/router"
)

//go:embed static/headers.html
var headersPage []byte

func newRouter() *router.Router {
	r := router.New()
	r.GET("/headers", handleHeadersPage)
	r.POST("/headers", handleEchoBody)
	r.GET("/redirect", handleRedirect)
	r.NotFound(handleNotFound)
	return r
}

func handleHeadersPage(req *request.Request) response.Response {
	return response.New(response.StatusOK, "X-Server: minihttp", headersPage)
}

func handleRedirect(req *request.Request) response.Response {
	resp, err := response.Redirect(response.StatusTemporaryRedirect, "/login")
	if err != nil {
		return response.Error(response.StatusInternalServerError, "")
	}
	return resp
}

// handleEchoBody shows the request body and its Content-Type
func handleEchoBody(req *request.Request) response.Response {
	body, err := req.Body.AllBytes()
	if err != nil {
		return response.Error(response.StatusBadRequest, err.Error())
	}

	text := "not utf8"
	if utf8.Valid(body) {
		text = string(body)
	}

	contentType, ok := req.Header("Content-Type")
	if !ok {
		contentType = "None"
	}

	page := fmt.Sprintf("<h1>body</h1>\n<pre><code>%s</code></pre>\n<hr/>\nContent-Type: <code>%s</code>",
		html.EscapeString(text), html.EscapeString(contentType))

	return response.New(response.StatusOK, "", []byte(page))
}

func handleNotFound(req *request.Request) response.Response {
	path, _, _ := strings.Cut(req.Path, "?")
	return response.New(response.StatusNotFound, "", []byte(fmt.Sprintf("<h1>%s Not Found</h1>", html.EscapeString(path))))
}
