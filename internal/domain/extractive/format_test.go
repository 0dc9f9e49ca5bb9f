package extractive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	sentences := []string{"One sentence here.", " Two sentence here. ", "Three sentence here."}

	tests := []struct {
		name        string
		summaryType SummaryType
		tone        Tone
		want        string
	}{
		{
			name:        "paragraph neutral",
			summaryType: TypeParagraph,
			tone:        ToneNeutral,
			want:        "Summary: One sentence here.  Two sentence here.  Three sentence here.",
		},
		{
			name:        "bullets casual",
			summaryType: TypeBullets,
			tone:        ToneCasual,
			want:        "So, here's the deal with this text:\n\n• One sentence here.\n\n• Two sentence here.\n\n• Three sentence here.",
		},
		{
			name:        "tldr keeps two sentences",
			summaryType: TypeTLDR,
			tone:        ToneFriendly,
			want:        "Hey there! Here's what this text is all about: One sentence here.  Two sentence here. ",
		},
		{
			name:        "formal prefix",
			summaryType: TypeParagraph,
			tone:        ToneFormal,
			want:        "Based on a comprehensive analysis of the provided text, the following summary has been generated: One sentence here.  Two sentence here.  Three sentence here.",
		},
		{
			name:        "unknown tone and type",
			summaryType: SummaryType("essay"),
			tone:        Tone("pirate"),
			want:        "Summary: One sentence here.  Two sentence here.  Three sentence here.",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			first := Format(sentences, tt.summaryType, tt.tone)
			require.Equal(t, tt.want, first)
			require.Equal(t, first, Format(sentences, tt.summaryType, tt.tone))
		})
	}
}

func TestParseSummaryTypeAndTone(t *testing.T) {
	t.Parallel()

	require.Equal(t, TypeBullets, ParseSummaryType(" BULLETS "))
	require.Equal(t, TypeTLDR, ParseSummaryType("tldr"))
	require.Equal(t, TypeParagraph, ParseSummaryType(""))
	require.Equal(t, TypeParagraph, ParseSummaryType("haiku"))

	require.Equal(t, ToneFormal, ParseTone("Formal"))
	require.Equal(t, ToneNeutral, ParseTone(""))
	require.Equal(t, ToneNeutral, ParseTone("sarcastic"))
	require.Equal(t, "Summary:", TonePrefix(Tone("unknown")))
}
