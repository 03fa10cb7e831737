// Package web holds the page markup the DOM renderer draws into.
package web

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ContainerID is the id of the element that holds the rendered downloads.
const ContainerID = "downloads"

//go:embed index.html
var indexHTML string

// Page parses a fresh copy of the page.
func Page() (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(indexHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
