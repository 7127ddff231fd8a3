package service

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/GTDGit/gtd_admin/pkg/catalogapi"
)

// ListParams is the list intent sent to a paginated endpoint.
type ListParams struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

func (p ListParams) normalized() ListParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = catalogapi.DefaultLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Query encodes p as query parameters. Empty values are dropped.
func (p ListParams) Query() url.Values {
	p = p.normalized()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	for k, v := range p.Filters {
		if k == "" || v == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}

// ListQuery returns the requested page position used for normalization.
func (p ListParams) ListQuery() catalogapi.ListQuery {
	p = p.normalized()
	return catalogapi.ListQuery{Page: p.Page, Limit: p.Limit}
}

// ExportBody returns search and filters as the JSON body of an export call.
func (p ListParams) ExportBody() map[string]string {
	body := make(map[string]string, len(p.Filters)+1)
	if s := strings.TrimSpace(p.Search); s != "" {
		body["search"] = s
	}
	for k, v := range p.Filters {
		if k != "" && v != "" {
			body[k] = v
		}
	}
	return body
}

// FilterKeys returns the non-empty filter keys in sorted order.
func (p ListParams) FilterKeys() []string {
	keys := make([]string, 0, len(p.Filters))
	for k, v := range p.Filters {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
