package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeAcceptsCleanInput(t *testing.T) {
	s := NewSanitizer(DefaultSanitizerConfig())

	res, err := s.Sanitize("Bonjour, je voudrais un devis pour un site web")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour, je voudrais un devis pour un site web", res.CleanText)
	assert.Empty(t, res.Stripped)
}

func TestSanitizeRejections(t *testing.T) {
	tests := []struct {
		name    string
		message string
		reason  string
	}{
		{
			name:    "empty input",
			message: "   ",
			reason:  "empty",
		},
		{
			name:    "oversize input",
			message: strings.Repeat("a", 501),
			reason:  "exceeds",
		},
		{
			name:    "script tag",
			message: `hello <script>alert(1)</script>`,
			reason:  "script_tag",
		},
		{
			name:    "javascript uri",
			message: "click javascript:void(0)",
			reason:  "javascript_uri",
		},
		{
			name:    "vbscript uri",
			message: "vbscript:msgbox(1)",
			reason:  "vbscript_uri",
		},
		{
			name:    "data html uri",
			message: "open data:text/html,<b>x</b>",
			reason:  "data_html_uri",
		},
		{
			name:    "iframe embed",
			message: `<iframe src="https://evil.example"></iframe>`,
			reason:  "embed_tag",
		},
		{
			name:    "event handler",
			message: `<img onerror=alert(1)>`,
			reason:  "event_handler",
		},
		{
			name:    "eval call",
			message: "please run eval(document.cookie)",
			reason:  "eval",
		},
	}

	s := NewSanitizer(DefaultSanitizerConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Sanitize(tt.message)
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err), "expected InvalidInputError, got %v", err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestSanitizeOversizeIsNotTruncated(t *testing.T) {
	s := NewSanitizer(SanitizerConfig{MaxLength: 10})

	_, err := s.Sanitize("this message is longer than ten characters")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestSanitizeCountsRunesNotBytes(t *testing.T) {
	s := NewSanitizer(SanitizerConfig{MaxLength: 10})

	// 10 accented characters are more than 10 bytes but exactly 10 runes.
	res, err := s.Sanitize("éééééééééé")
	require.NoError(t, err)
	assert.Equal(t, "éééééééééé", res.CleanText)
}

func TestSanitizeStripsLowAndMediumRisk(t *testing.T) {
	s := NewSanitizer(DefaultSanitizerConfig())

	res, err := s.Sanitize("hello <b>world</b>, need a quote")
	require.NoError(t, err)
	assert.NotContains(t, res.CleanText, "<b>")
	assert.NotEmpty(t, res.Stripped)
}

func TestSanitizeRejectsWhenNothingSurvives(t *testing.T) {
	s := NewSanitizer(DefaultSanitizerConfig())

	_, err := s.Sanitize("<b></b>")
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestSanitizeSameInputSameVerdict(t *testing.T) {
	s := NewSanitizer(DefaultSanitizerConfig())

	first, err1 := s.Sanitize("hello <i>there</i>")
	second, err2 := s.Sanitize("hello <i>there</i>")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
}
