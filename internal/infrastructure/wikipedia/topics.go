package wikipedia

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"infiniwiki/internal/domain"
)

const categoryNamespace = 14

// categoryWalker fetches one category node; swappable in tests.
type categoryWalker func(ctx context.Context, category string) (pages, subcats []string, err error)

type categoryNode struct {
	name  string
	depth int
}

// TopicTitles walks a category hierarchy with an explicit worklist and
// visited set (cyclic hierarchies are common upstream) and collects leaf
// article titles, sub-categories first at each node, until maxCount titles
// are gathered or maxDepth is exhausted. A failing branch is logged and
// skipped; only a walk yielding nothing at all is an error.
func (c *Client) TopicTitles(ctx context.Context, topic string, maxCount, maxDepth int) ([]string, error) {
	root := strings.TrimSpace(topic)
	if root == "" {
		return nil, fmt.Errorf("topic: %w", domain.ErrEmptyInput)
	}

	visited := map[string]bool{}
	worklist := []categoryNode{{name: root}}
	var titles []string

	for len(worklist) > 0 && len(titles) < maxCount {
		node := worklist[0]
		worklist = worklist[1:]
		if visited[node.name] {
			continue
		}
		visited[node.name] = true

		pages, subcats, err := c.categoryWalker(ctx, node.name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Partial-failure tolerant: one bad branch never aborts the walk.
			c.warn("topic branch failed", "category", node.name, "error", err)
			continue
		}

		if node.depth < maxDepth {
			next := make([]categoryNode, 0, len(subcats))
			for _, sub := range subcats {
				if !visited[sub] {
					next = append(next, categoryNode{name: sub, depth: node.depth + 1})
				}
			}
			worklist = append(next, worklist...)
		}

		for _, title := range pages {
			if IsMetaTitle(title) {
				continue
			}
			titles = append(titles, title)
			if len(titles) >= maxCount {
				break
			}
		}
	}

	if len(titles) == 0 {
		return nil, fmt.Errorf("topic %s: %w", root, domain.ErrNoContent)
	}
	return titles, nil
}

// categoryMembers lists one category's child pages and sub-categories via
// the action API.
func (c *Client) categoryMembers(ctx context.Context, category string) (pages, subcats []string, err error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", "Category:"+category)
	params.Set("cmtype", "page|subcat")
	params.Set("cmlimit", "500")
	params.Set("format", "json")

	var payload struct {
		Query struct {
			CategoryMembers []struct {
				Title string `json:"title"`
				NS    int    `json:"ns"`
			} `json:"categorymembers"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.baseURL+actionPath+"?"+params.Encode(), &payload); err != nil {
		return nil, nil, err
	}

	for _, member := range payload.Query.CategoryMembers {
		if member.NS == categoryNamespace {
			subcats = append(subcats, strings.TrimPrefix(member.Title, "Category:"))
			continue
		}
		pages = append(pages, member.Title)
	}
	return pages, subcats, nil
}
