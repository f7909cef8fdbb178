package sanitize_test

import (
	"encoding/json"
	"testing"
	"unicode/utf8"

	"github.com/amirasaad/storefront/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCII(t *testing.T) {
	cases := map[string]string{
		"plain":           "plain",
		"Café Müller":     "Cafe Muller",
		"Straße":          "Strasse",
		"Łódź":            "Lodz",
		"“quoted” — text": `"quoted" - text`,
		"東京":              "??",
		"price: 5 €":      "price: 5 EUR",
		"São Paulo":       "Sao Paulo",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitize.ASCII(in), in)
	}
}

func TestWalk(t *testing.T) {
	in := map[string]any{
		"näme": "Zoë",
		"tags": []any{"größe", 42.0},
		"nested": map[string]any{
			"city": "Malmö",
			"ok":   true,
		},
	}
	out := sanitize.Walk(in, sanitize.ASCII).(map[string]any)

	assert.Equal(t, "Zoe", out["name"])
	assert.Equal(t, []any{"grosse", 42.0}, out["tags"])
	assert.Equal(t, "Malmo", out["nested"].(map[string]any)["city"])
	assert.Equal(t, true, out["nested"].(map[string]any)["ok"])
}

func TestPayload(t *testing.T) {
	t.Run("replaces non-ascii escapes", func(t *testing.T) {
		got := sanitize.Payload([]byte(`{"note":"line\u2028break \u00e9 \u003c"}`))
		assert.Equal(t, `{"note":"line?break ? \u003c"}`, string(got))
	})

	t.Run("keeps escaped backslashes", func(t *testing.T) {
		got := sanitize.Payload([]byte(`{"path":"C:\\u00e9"}`))
		assert.Equal(t, `{"path":"C:\\u00e9"}`, string(got))
	})

	t.Run("replaces raw multibyte sequences", func(t *testing.T) {
		got := sanitize.Payload([]byte(`{"city":"Zürich"}`))
		assert.Equal(t, `{"city":"Z?rich"}`, string(got))
	})

	t.Run("result stays valid json", func(t *testing.T) {
		raw, err := json.Marshal(map[string]string{"a": "x\u2028y", "b": "naïve"})
		require.NoError(t, err)
		got := sanitize.Payload(raw)
		for _, c := range string(got) {
			assert.Less(t, c, rune(utf8.RuneSelf))
		}
		var decoded map[string]string
		require.NoError(t, json.Unmarshal(got, &decoded))
		assert.Equal(t, "x?y", decoded["a"])
		assert.Equal(t, "na?ve", decoded["b"])
	})
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "shpat_abc123", sanitize.Header("  shpat_abc123\n"))
	assert.Equal(t, "tkn", sanitize.Header("tökën"))
}
