package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Map9876/GitHub-action-torrent/internal/status"
)

// ErrContainerNotFound is returned when the page has no element with the
// requested container id.
var ErrContainerNotFound = errors.New("container element not found")

// DOM renders snapshots into a container element of an HTML document.
// Each Render removes every child of the container and appends one block per
// record, so the container always mirrors the last snapshot exactly.
type DOM struct {
	mu        sync.RWMutex
	doc       *html.Node
	container *html.Node
}

// NewDOM locates the element with id containerID in doc.
func NewDOM(doc *html.Node, containerID string) (*DOM, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrContainerNotFound)
	}
	container := findByID(doc, containerID)
	if container == nil {
		return nil, fmt.Errorf("%w: #%s", ErrContainerNotFound, containerID)
	}
	return &DOM{doc: doc, container: container}, nil
}

// NewDOMFromMarkup parses markup and locates the container in it.
func NewDOMFromMarkup(r io.Reader, containerID string) (*DOM, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return NewDOM(doc, containerID)
}

// Render replaces the container's children with one block per record.
func (d *DOM) Render(snap status.Snapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for c := d.container.FirstChild; c != nil; c = d.container.FirstChild {
		d.container.RemoveChild(c)
	}
	for _, f := range snap.Files {
		d.container.AppendChild(downloadBlock(f))
	}
	return nil
}

// Len returns the number of blocks currently in the container.
func (d *DOM) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for c := d.container.FirstChild; c != nil; c = c.NextSibling {
		n++
	}
	return n
}

// WriteDocument serialises the whole document to w.
func (d *DOM) WriteDocument(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.doc)
}

// ContainerHTML serialises the container's children.
func (d *DOM) ContainerHTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var b strings.Builder
	for c := d.container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// downloadBlock builds
//
//	<div><h2>path</h2><p>Size: N bytes</p><p>Downloaded: N bytes</p>
//	<p>Speed: N kB/s</p><progress value="downloaded" max="size"></progress></div>
func downloadBlock(f status.DownloadStatus) *html.Node {
	div := element(atom.Div)
	div.AppendChild(withText(element(atom.H2), f.Path))
	div.AppendChild(withText(element(atom.P), "Size: "+status.FormatNumber(f.Size)+" bytes"))
	div.AppendChild(withText(element(atom.P), "Downloaded: "+status.FormatNumber(f.Downloaded)+" bytes"))
	div.AppendChild(withText(element(atom.P), "Speed: "+status.FormatNumber(f.Speed)+" kB/s"))

	progress := element(atom.Progress)
	progress.Attr = []html.Attribute{
		{Key: "value", Val: status.FormatNumber(f.Downloaded)},
		{Key: "max", Val: status.FormatNumber(f.Size)},
	}
	div.AppendChild(progress)
	return div
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
