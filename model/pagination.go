package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// BoardStride is the pagination id step between board listing pages.
	BoardStride = 40
	// TopicStride is the pagination id step between topic pages.
	TopicStride = 20
)

var ErrMalformedLink = errors.New("malformed pagination link")

// SplitLink splits a link like "https://host/index.php?topic=123.0" into its
// base ("https://host/index.php?topic=") and numeric id (123).
func SplitLink(link string) (base string, id int, err error) {
	i := strings.Index(link, "=")
	if i < 0 {
		return "", 0, fmt.Errorf("%w: %q has no '='", ErrMalformedLink, link)
	}
	num, err := strconv.ParseFloat(link[i+1:], 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %v", ErrMalformedLink, link, err)
	}
	return link[:i+1], int(num), nil
}

// PageLink returns the link of the zero-based page index for the paginated
// resource identified by link.
func PageLink(link string, stride, index int) (string, error) {
	base, id, err := SplitLink(link)
	if err != nil {
		return "", err
	}
	return base + strconv.Itoa(id) + "." + strconv.Itoa(index*stride), nil
}

func PageLinks(link string, stride, count int) ([]string, error) {
	base, id, err := SplitLink(link)
	if err != nil {
		return nil, err
	}
	links := make([]string, count)
	for i := range links {
		links[i] = base + strconv.Itoa(id) + "." + strconv.Itoa(i*stride)
	}
	return links, nil
}

func TopicPageLink(firstPageLink string, index int) (string, error) {
	return PageLink(firstPageLink, TopicStride, index)
}
