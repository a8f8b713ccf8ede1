package pagination

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
		wantOffset  int
	}{
		{"defaults", 0, 0, Params{Page: 1, Limit: DefaultLimit}, 0},
		{"third page", 3, 10, Params{Page: 3, Limit: 10}, 20},
		{"negative page", -4, 5, Params{Page: 1, Limit: 5}, 0},
		{"limit capped", 2, 1000, Params{Page: 2, Limit: MaxLimit}, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.page, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOffset, got.Offset())
		})
	}
}

func TestFromQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := FromQuery(c)
		return c.SendString(strconv.Itoa(p.Page) + "/" + strconv.Itoa(p.Limit))
	})

	for query, want := range map[string]string{
		"":                  "1/20",
		"?page=2&limit=5":   "2/5",
		"?page=abc&limit=x": "1/20",
		"?limit=500":        "1/100",
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil), -1)
		require.NoError(t, err)
		buf := make([]byte, 16)
		n, _ := resp.Body.Read(buf)
		resp.Body.Close()
		assert.Equal(t, want, string(buf[:n]), query)
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage([]string{"c", "d"}, New(2, 2), 5)
	assert.Equal(t, []string{"c", "d"}, page.Data)
	assert.Equal(t, Meta{Page: 2, Limit: 2, Total: 5, TotalPages: 3, HasNext: true, HasPrev: true}, page.Meta)

	last := NewPage([]string{"e"}, New(3, 2), 5)
	assert.False(t, last.Meta.HasNext)

	empty := NewPage[string](nil, New(1, 20), 0)
	assert.NotNil(t, empty.Data)
	assert.Zero(t, empty.Meta.TotalPages)
	assert.False(t, empty.Meta.HasNext)
}

func TestMap(t *testing.T) {
	page := NewPage([]int{1, 2, 3}, New(1, 3), 7)

	mapped := Map(page, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, mapped.Data)
	assert.Equal(t, page.Meta, mapped.Meta)
}
