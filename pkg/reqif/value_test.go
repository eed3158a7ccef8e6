package reqif

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_EqualIsTypeAware(t *testing.T) {
	assert.False(t, Missing().Equal(TextValue("")))
	assert.True(t, Missing().Equal(Value{}))
	assert.False(t, TextValue("1").Equal(IntValue(1)))
	assert.False(t, TextValue("High").Equal(EnumValue("High")))
	assert.True(t, HTMLValue("<p>a <b>b</b></p>").Equal(HTMLValue("<div>a b</div>")))
	assert.True(t, RealValue(1.5).Equal(RealValue(1.5)))
	assert.False(t, BoolValue(true).Equal(BoolValue(false)))
}

func TestValue_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		empty bool
	}{
		{"missing", Missing(), true},
		{"blank text", TextValue("  "), true},
		{"text", TextValue("x"), false},
		{"empty html", HTMLValue("<div> </div>"), true},
		{"empty enum", EnumValue(""), true},
		{"false", BoolValue(false), false},
		{"zero", IntValue(0), false},
		{"zero real", RealValue(0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.value.IsEmpty())
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "", Missing().String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "-42", IntValue(-42).String())
	assert.Equal(t, "0.125", RealValue(0.125).String())
	assert.Equal(t, "Line one Line two", HTMLValue("<p>Line one<br/>Line two</p>").String())
	assert.Equal(t, "a & b", HTMLValue("a &amp; b").String())
}

func TestValue_JSON(t *testing.T) {
	values := map[string]Value{
		"m": Missing(),
		"t": TextValue("plain"),
		"h": HTMLValue("<p>rich</p>"),
		"e": EnumValue("High, Low"),
		"b": BoolValue(true),
		"i": IntValue(7),
		"r": RealValue(2.5),
	}
	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"i":{"kind":"int","value":7}`)
	assert.Contains(t, string(data), `"m":{"kind":"missing"}`)

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, values, back)

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"blob"}`), &bad))
}

func TestPlainTextAndMarkdown(t *testing.T) {
	assert.Equal(t, "", PlainText("   "))
	assert.Equal(t, "see diagram", PlainText(`see <object data="x.png" name="diagram"/>`))
	assert.Equal(t, "one two", PlainText("<ul><li>one</li><li>two</li></ul>"))

	out, err := Markdown("<p>The <b>brake</b> shall engage.</p>")
	require.NoError(t, err)
	assert.Equal(t, "The **brake** shall engage.", out)
}
