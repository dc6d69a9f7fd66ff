package entity

import (
	"strings"
	"testing"
)

func TestArticle_SummarySource(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		want    string
		wantOK  bool
	}{
		{"full text wins", Article{Title: "t", Summary: "s", FullText: "f"}, "f", true},
		{"summary when no full text", Article{Title: "t", Summary: "s"}, "s", true},
		{"title as last resort", Article{Title: "t"}, "t", true},
		{"nothing to summarize", Article{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.article.SummarySource()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("SummarySource() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInterest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Interest
		wantErr bool
	}{
		{"valid", Interest{Name: "Artificial Intelligence"}, false},
		{"blank", Interest{Name: "   "}, true},
		{"too long", Interest{Name: strings.Repeat("a", MaxInterestNameLength+1)}, true},
		{"exactly at limit", Interest{Name: strings.Repeat("é", MaxInterestNameLength)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterest_Key(t *testing.T) {
	if got := (Interest{Name: "  Climate Change "}).Key(); got != "climate change" {
		t.Errorf("Key() = %q", got)
	}
}

func TestValidateArticleURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https URL", "https://example.com/news/1", false},
		{"valid http URL", "http://example.com/news/1", false},
		{"empty URL", "", true},
		{"invalid scheme", "ftp://example.com/file", true},
		{"no host", "https://", true},
		{"too long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArticleURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArticleURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestJobState_Terminal(t *testing.T) {
	for state, want := range map[JobState]bool{
		JobPending:        false,
		JobInFlight:       false,
		JobRetryScheduled: false,
		JobDone:           true,
		JobAbandoned:      true,
	} {
		if got := state.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, got, want)
		}
	}
}
