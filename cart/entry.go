package cart

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrMissingRestaurant = errors.New("missing restaurant, scan a table QR code")

// TableContext identifies where a cart's order goes. Zero ids mean unknown.
type TableContext struct {
	RestaurantID int64
	TableID      int64
	TableCode    string
}

// ParseEntryURL reads the context from a table QR menu link of the form
// /menu?restaurant=<id>&table=<id>&code=<code>. Ids that are not positive
// integers are treated as absent; the restaurant is required.
func ParseEntryURL(raw string) (TableContext, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return TableContext{}, fmt.Errorf("parse entry url: %w", err)
	}
	q := u.Query()
	entry := TableContext{
		RestaurantID: positiveID(q.Get("restaurant")),
		TableID:      positiveID(q.Get("table")),
		TableCode:    strings.TrimSpace(q.Get("code")),
	}
	if entry.RestaurantID == 0 {
		return entry, ErrMissingRestaurant
	}
	return entry, nil
}

// MenuURL builds the link encoded in the table's QR code.
func (t TableContext) MenuURL(origin string) string {
	q := url.Values{}
	q.Set("restaurant", strconv.FormatInt(t.RestaurantID, 10))
	if t.TableID > 0 {
		q.Set("table", strconv.FormatInt(t.TableID, 10))
	}
	if t.TableCode != "" {
		q.Set("code", t.TableCode)
	}
	return strings.TrimRight(origin, "/") + "/menu?" + q.Encode()
}

func (t TableContext) restaurantRef() *int64 {
	if t.RestaurantID <= 0 {
		return nil
	}
	id := t.RestaurantID
	return &id
}

func (t TableContext) tableRef() *int64 {
	if t.TableID <= 0 {
		return nil
	}
	id := t.TableID
	return &id
}

func positiveID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
