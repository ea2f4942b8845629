package handler // handler defines http handlers

import (
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/api-client-manager/internal/respond"
    "github.com/iliyamo/api-client-manager/internal/result"
    "github.com/iliyamo/api-client-manager/internal/validation"
)

// query returns a trimmed query parameter.
func query(c echo.Context, name string) string {
    return strings.TrimSpace(c.QueryParam(name))
}

// paging reads the limit/offset pair of a list request.
func paging(c echo.Context) validation.Paging {
    return validation.Paging{Limit: query(c, "limit"), Offset: query(c, "offset")}
}

// bind decodes the JSON body into dst.  A body that cannot be decoded is
// written back as an invalid payload and ok is false.
func bind(c echo.Context, out respond.Writer, dst any) (ok bool, err error) {
    if err := c.Bind(dst); err != nil {
        f := validation.BadPayload().(*result.Failure)
        return false, out.Failure(c, f)
    }
    return true, nil
}
