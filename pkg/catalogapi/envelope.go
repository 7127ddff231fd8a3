package catalogapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultLimit is the page size used when neither request nor response carries one.
const DefaultLimit = 10

// Page is the canonical shape of every paginated list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// EmptyPage returns a zero-item page for the requested position.
func EmptyPage[T any](q ListQuery) Page[T] {
	q = q.normalized()
	return Page[T]{Items: []T{}, Page: q.Page, Limit: q.Limit}
}

// ListQuery carries the page and limit that were requested, used when the
// response omits them.
type ListQuery struct {
	Page  int
	Limit int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return q
}

// TotalPages returns ceil(total/limit), or 0 when total is 0.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Shape is one of the accepted list envelope forms.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeRawArray is a bare JSON array, or {data: [...]} without pagination.
	ShapeRawArray
	// ShapeNestedItemsTotal is {data: {items: [...], total: n}}.
	ShapeNestedItemsTotal
	// ShapeDataPagination is {data: [...], pagination: {...}}.
	ShapeDataPagination
)

func (s Shape) String() string {
	switch s {
	case ShapeRawArray:
		return "raw_array"
	case ShapeNestedItemsTotal:
		return "nested_items_total"
	case ShapeDataPagination:
		return "data_pagination"
	default:
		return "unknown"
	}
}

type paginationBlock struct {
	Total       *int `json:"total"`
	Page        int  `json:"page"`
	CurrentPage int  `json:"currentPage"`
	Limit       int  `json:"limit"`
}

type nestedBlock struct {
	Items json.RawMessage `json:"items"`
	Total *int            `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type listEnvelope struct {
	Data       json.RawMessage  `json:"data"`
	Pagination *paginationBlock `json:"pagination"`
}

// DetectShape inspects a response body and reports which accepted form it is.
func DetectShape(raw []byte) (Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeUnknown, &ShapeError{Reason: "empty body"}
	}
	switch trimmed[0] {
	case '[':
		return ShapeRawArray, nil
	case '{':
	default:
		return ShapeUnknown, &ShapeError{Reason: "body is neither an array nor an object"}
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return ShapeUnknown, &ShapeError{Reason: err.Error()}
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 {
		return ShapeUnknown, &ShapeError{Reason: "missing data field"}
	}
	switch data[0] {
	case '[':
		if env.Pagination != nil {
			return ShapeDataPagination, nil
		}
		return ShapeRawArray, nil
	case '{':
		var nested nestedBlock
		if err := json.Unmarshal(data, &nested); err != nil {
			return ShapeUnknown, &ShapeError{Reason: err.Error()}
		}
		items := bytes.TrimSpace(nested.Items)
		if len(items) == 0 || items[0] != '[' {
			return ShapeUnknown, &ShapeError{Reason: "data object has no items list"}
		}
		return ShapeNestedItemsTotal, nil
	default:
		return ShapeUnknown, &ShapeError{Reason: fmt.Sprintf("data field is %s", describe(data))}
	}
}

// Normalize converts any accepted list envelope into a Page. Unrecognized
// envelopes yield a *ShapeError.
func Normalize[T any](raw []byte, q ListQuery) (Page[T], error) {
	q = q.normalized()
	shape, err := DetectShape(raw)
	if err != nil {
		return EmptyPage[T](q), err
	}
	switch shape {
	case ShapeRawArray:
		return normalizeRawArray[T](raw, q)
	case ShapeNestedItemsTotal:
		return normalizeNested[T](raw, q)
	case ShapeDataPagination:
		return normalizeDataPagination[T](raw, q)
	default:
		return EmptyPage[T](q), &ShapeError{Reason: "unknown shape"}
	}
}

func normalizeRawArray[T any](raw []byte, q ListQuery) (Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	list := trimmed
	if trimmed[0] == '{' {
		var env listEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return EmptyPage[T](q), &ShapeError{Reason: err.Error()}
		}
		list = env.Data
	}
	items, err := decodeItems[T](list)
	if err != nil {
		return EmptyPage[T](q), err
	}
	return build(items, q.Page, q.Limit, len(items)), nil
}

func normalizeNested[T any](raw []byte, q ListQuery) (Page[T], error) {
	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return EmptyPage[T](q), &ShapeError{Reason: err.Error()}
	}
	var nested nestedBlock
	if err := json.Unmarshal(env.Data, &nested); err != nil {
		return EmptyPage[T](q), &ShapeError{Reason: err.Error()}
	}
	items, err := decodeItems[T](nested.Items)
	if err != nil {
		return EmptyPage[T](q), err
	}
	total := len(items)
	if nested.Total != nil {
		total = *nested.Total
	}
	return build(items, firstPositive(nested.Page, q.Page), firstPositive(nested.Limit, q.Limit), total), nil
}

func normalizeDataPagination[T any](raw []byte, q ListQuery) (Page[T], error) {
	var env listEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return EmptyPage[T](q), &ShapeError{Reason: err.Error()}
	}
	items, err := decodeItems[T](env.Data)
	if err != nil {
		return EmptyPage[T](q), err
	}
	p := env.Pagination
	total := len(items)
	if p.Total != nil {
		total = *p.Total
	}
	page := firstPositive(p.Page, p.CurrentPage, q.Page)
	return build(items, page, firstPositive(p.Limit, q.Limit), total), nil
}

func build[T any](items []T, page, limit, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	if total < 0 {
		total = 0
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}
}

func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ShapeError{Reason: fmt.Sprintf("items: %v", err)}
	}
	return items, nil
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func describe(raw []byte) string {
	switch raw[0] {
	case '"':
		return "a string"
	case 'n':
		return "null"
	case 't', 'f':
		return "a boolean"
	default:
		return "a number"
	}
}

// DecodeData decodes a single-item response. {data: T} is unwrapped;
// any other object is decoded as T directly.
func DecodeData[T any](raw []byte) (T, error) {
	var zero T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return zero, &ShapeError{Reason: "empty body"}
	}
	if trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return zero, &ShapeError{Reason: err.Error()}
		}
		if d := bytes.TrimSpace(env.Data); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
			trimmed = d
		}
	}
	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return zero, &ShapeError{Reason: err.Error()}
	}
	return out, nil
}
