package web

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestPage_HasContainer(t *testing.T) {
	doc, err := Page()
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == ContainerID {
					found = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !found {
		t.Fatalf("page has no element with id %q", ContainerID)
	}
}

func TestPage_FreshCopies(t *testing.T) {
	a, err := Page()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Page()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("Page returned the same document twice")
	}
	if !strings.Contains(indexHTML, `id="downloads"`) {
		t.Error("markup missing downloads container")
	}
}
