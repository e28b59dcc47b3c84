package validation

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgumentLength(t *testing.T) {
	res := ValidateArgument("   exactly10! ")
	assert.True(t, res.IsValid, "10 runes after trimming")

	res = ValidateArgument("  short  ")
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "at least 10")

	res = ValidateArgument(strings.Repeat("ä", ArgumentMaxLength))
	assert.True(t, res.IsValid, "length counts runes, not bytes")

	res = ValidateArgument(strings.Repeat("a", ArgumentMaxLength+1))
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "2000")

	res = ValidateArgument("   ")
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "required")
}

func TestValidateArgumentSanitizesEvenWhenInvalid(t *testing.T) {
	res := ValidateArgument(`<b>Taxes</b> should rise <script>alert("x")</script>for everyone`)
	assert.False(t, res.IsValid)
	assert.NotEmpty(t, res.Errors)
	assert.NotContains(t, res.SanitizedValue, "<")
	assert.Contains(t, res.SanitizedValue, "Taxes should rise")
}

func TestSuspiciousPatternsRejectedRegardlessOfContext(t *testing.T) {
	patterns := []string{
		"<script>",
		"<SCRIPT src=x>",
		"javascript:alert(1)",
		"JavaScript:void(0)",
		`onClick="steal()"`,
		"onmouseover = x",
		"data:text/html;base64,AAAA",
		"VBScript:msgbox",
	}
	alphabet := []rune("abcdefghijklmnopqrstuvwxyz ABCÄÖÜ.,!?0123456789\n")
	rng := rand.New(rand.NewSource(42))
	randomText := func() string {
		n := rng.Intn(40)
		out := make([]rune, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(out)
	}

	for _, p := range patterns {
		for i := 0; i < 200; i++ {
			text := "A reasonable opening. " + randomText() + p + randomText()
			res := ValidateArgument(text)
			if !assert.False(t, res.IsValid, "pattern %q in %q", p, text) {
				return
			}
			assert.NotEmpty(t, res.Errors)
		}
	}
}

func TestSanitizeIdempotentOnPlainText(t *testing.T) {
	inputs := []string{
		"Plain text stays the same.",
		"Umlaute: äöü ÄÖÜ ß, Akzente: é è ê à á ç ñ",
		"Quotes \"double\" and 'single' & ampersands",
		"Math: 3 > 2 and 1 + 1 = 2",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, in, once)
		assert.Equal(t, once, Sanitize(once))
	}
}

func TestSanitizeStripsMarkup(t *testing.T) {
	assert.Equal(t, "bold and link", Sanitize(`<b>bold</b> and <a href="http://x" onclick="y">link</a>`))
	assert.Equal(t, "", Sanitize(`<script>alert(1)</script>`))
}

func TestEntityEncodedMarkupIsRejected(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(document.cookie)&lt;/script&gt; padding text",
		"&lt;img src=x onerror=alert(1)&gt; and some more words",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt; doubly encoded",
	}
	for _, in := range inputs {
		res := ValidateArgument(in)
		assert.False(t, res.IsValid, in)
		assert.NotEmpty(t, res.Errors, in)
		assert.NotContains(t, res.SanitizedValue, "<", in)
		assert.NotContains(t, strings.ToLower(res.SanitizedValue), "onerror=", in)
	}
}

func TestSanitizeDoesNotRevive(t *testing.T) {
	assert.Equal(t, " padding", Sanitize("&lt;script&gt;alert(1)&lt;/script&gt; padding"))
	assert.NotContains(t, Sanitize("&lt;img src=x onerror=alert(1)&gt;text"), "<img")
	assert.Equal(t, "a < b", Sanitize("a &lt; b"))
}

func TestMarkupOnlyInputCountsAsEmpty(t *testing.T) {
	res := ValidateArgument("<p></p><p></p><b></b>")
	assert.False(t, res.IsValid)
	assert.Equal(t, "", res.SanitizedValue)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "required")

	res = ValidateArgument("<b>tiny</b><i></i><i></i><i></i>")
	assert.False(t, res.IsValid, "only the text content counts towards the minimum")
	assert.Contains(t, res.Errors[0], "at least 10")

	res = ValidateTitle("<em>   </em>")
	assert.False(t, res.IsValid)
}

func TestValidateTitleAndDescription(t *testing.T) {
	assert.False(t, ValidateTitle("Tax").IsValid)
	assert.True(t, ValidateTitle("Should taxes rise?").IsValid)
	assert.False(t, ValidateTitle(strings.Repeat("t", TitleMaxLength+1)).IsValid)
	assert.False(t, ValidateTitle("Hello javascript: world").IsValid)

	assert.True(t, ValidateDescription("").IsValid)
	assert.True(t, ValidateDescription("Short").IsValid)
	assert.False(t, ValidateDescription(strings.Repeat("d", DescriptionMaxLength+1)).IsValid)
}

func TestValidateUsername(t *testing.T) {
	valid := []string{"Jo", "Jürgen Müller", "ana_maria.g-22", "Françoise", "Peña"}
	for _, name := range valid {
		assert.True(t, ValidateUsername(name).IsValid, name)
	}

	invalid := []string{"a", strings.Repeat("x", UsernameMaxLength+1), "bob<script>", "eve@example", "semi;colon"}
	for _, name := range invalid {
		res := ValidateUsername(name)
		assert.False(t, res.IsValid, name)
		assert.NotEmpty(t, res.Errors, name)
	}
}

func TestValidateSourceURLSchemes(t *testing.T) {
	for _, raw := range []string{"http://example.org/a", "https://example.org/study.pdf?x=1"} {
		res := ValidateSourceURL(raw, true)
		assert.True(t, res.IsValid, raw)
		assert.Equal(t, raw, res.SanitizedValue)
	}

	bad := map[string]string{
		"ftp://example.org/file":         "ftp",
		"file:///etc/passwd":             "file",
		"javascript:alert(1)":            "javascript",
		"data:text/html,<b>x</b>":        "data",
		"ws://example.org/socket":        "ws",
		"mailto:someone@example.org":     "mailto",
		"HTTPS-evil://example.org/thing": "https-evil",
	}
	for raw, scheme := range bad {
		res := ValidateSourceURL(raw, false)
		assert.False(t, res.IsValid, raw)
		require.Len(t, res.Errors, 1, raw)
		assert.Contains(t, res.Errors[0], scheme, raw)
		assert.Contains(t, res.Errors[0], "scheme", raw)
	}

	assert.False(t, ValidateSourceURL("", false).IsValid)
	assert.False(t, ValidateSourceURL("not a url", false).IsValid)
}

func TestValidateSourceURLPrivateHosts(t *testing.T) {
	private := []string{
		"http://localhost:3000/x",
		"http://127.0.0.1/",
		"http://192.168.1.10/admin",
		"http://10.0.0.8/",
		"http://0.0.0.0/",
	}
	for _, raw := range private {
		assert.True(t, ValidateSourceURL(raw, false).IsValid, "development allows %s", raw)
		assert.False(t, ValidateSourceURL(raw, true).IsValid, "production rejects %s", raw)
	}
}

func TestValidateSourceDescription(t *testing.T) {
	assert.True(t, ValidateSourceDescription("Federal statistics office, 2023").IsValid)
	assert.False(t, ValidateSourceDescription("").IsValid)
	assert.False(t, ValidateSourceDescription("ab").IsValid)
}
