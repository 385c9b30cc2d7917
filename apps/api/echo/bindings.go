package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/motaylenko/meedle/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindDateParam parses a "2006-01-02" query param as a UTC date.
// A missing param yields `def`; a malformed one yields a 400.
func bindDateParam(ctx echo.Context, name string, def time.Time) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return def, nil
	}
	date, err := time.ParseInLocation("2006-01-02", val, time.UTC)
	if err != nil {
		return time.Time{}, core.NewFieldError(name, "invalid date, expected YYYY-MM-DD")
	}
	return date, nil
}
