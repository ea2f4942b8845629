package model

// Window is a resolved pagination request.
type Window struct {
    Limit  int
    Offset int
}

// Page is one window of a filtered listing.  Count is the size of Data and
// TotalCount the number of rows matching the filter without pagination.
type Page[T any] struct {
    Data       []T `json:"data"`
    Count      int `json:"count"`
    TotalCount int `json:"totalCount"`
}

// NewPage builds a page, normalising a nil slice to an empty one.
func NewPage[T any](data []T, total int) Page[T] {
    if data == nil {
        data = []T{}
    }
    return Page[T]{Data: data, Count: len(data), TotalCount: total}
}
